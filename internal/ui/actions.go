package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/tasks"
)

// Library writes. Each action runs off the event loop and reports through [MsgInfo] or [MsgCommandDone];
// the lists refetch when the write's refresh notice arrives.

func (m *Model) openPrompt(kind prompt) tea.Cmd {
	m.prompt = kind
	m.info, m.status = "", nil
	m.input.Reset()
	switch kind {
	case promptCreate:
		m.input.Prompt = "New playlist: "
		m.input.Placeholder = "name"
		m.input.CharLimit = models.MaxPlaylistNameLength
	case promptImport:
		m.input.Prompt = "Import: "
		m.input.Placeholder = "file or directory"
		m.input.CharLimit = 0
	}
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		kind, value := m.prompt, strings.TrimSpace(m.input.Value())
		m.closePrompt()
		switch kind {
		case promptCreate:
			return m, m.createPlaylist(value)
		case promptImport:
			if value == "" {
				return m, nil
			}
			return m, m.importFiles(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) createPlaylist(name string) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		p, err := lib.CreatePlaylist(name)
		if err != nil {
			return commandDoneMsg(err)
		}
		return infoMsg(fmt.Sprintf("Created playlist '%s'", p.Name))
	}
}

func (m *Model) deletePlaylist(p models.Playlist) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		if err := lib.DeletePlaylist(p.PlaylistID); err != nil {
			return commandDoneMsg(err)
		}
		return infoMsg(fmt.Sprintf("Deleted playlist '%s'", p.Name))
	}
}

func (m *Model) addTrack(t models.Track, p models.Playlist) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		if err := lib.AddTrackToPlaylist(t.TrackID, p.PlaylistID); err != nil {
			return commandDoneMsg(err)
		}
		return infoMsg(fmt.Sprintf("Added '%s' to '%s'", t.Name, p.Name))
	}
}

func (m *Model) removeTrack(t models.Track, p models.Playlist) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		if err := lib.RemoveTrackFromPlaylist(t.TrackID, p.PlaylistID); err != nil {
			return commandDoneMsg(err)
		}
		return infoMsg(fmt.Sprintf("Removed '%s' from '%s'", t.Name, p.Name))
	}
}

// importFiles expands path and drains it through an import queue. Failed files are counted, not fatal.
func (m *Model) importFiles(path string) tea.Cmd {
	ctx, lib, opts := m.ctx, m.lib, m.opts
	return func() tea.Msg {
		files, err := tasks.ExpandPaths([]string{path}, opts.Extensions)
		if err != nil {
			return commandDoneMsg(err)
		}
		if len(files) == 0 {
			return infoMsg(fmt.Sprintf("No audio files found in %s", path))
		}

		queue := tasks.NewImportQueue(lib, opts.Resolver, tasks.ImportOpts{RateLimit: opts.ImportRate, Logger: opts.Logger})
		queue.Enqueue(files...)
		result, err := queue.Run(ctx, nil)
		if err != nil {
			return commandDoneMsg(err)
		}
		return infoMsg(fmt.Sprintf("Imported %d of %d files", result.Imported, len(files)))
	}
}
