package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/metadata"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/refresh"
	"github.com/desertthunder/lark/internal/session"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/desertthunder/lark/internal/tasks"
)

// seekStep is how far the seek keys move the position, in seconds.
const seekStep = 5.0

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	NowPlayingView
)

// Library is the part of the library the TUI browses and edits. library.Service satisfies it.
// Reads go through refresh caches so a view only refetches after a write touched its topic.
type Library interface {
	tasks.Importer

	PlaylistsCache() *refresh.Cache[[]models.Playlist]
	TracksCache(playlistID int64) *refresh.Cache[[]models.Track]
	CountTracks(playlistID int64) (int, error)
	Describe(track models.Track) (artist, album string)
	Refresh() *refresh.Coordinator

	CreatePlaylist(name string) (*models.Playlist, error)
	DeletePlaylist(id int64) error
	AddTrackToPlaylist(trackID, playlistID int64) error
	RemoveTrackFromPlaylist(trackID, playlistID int64) error
}

// Player is the playback surface the TUI drives. [session.Session] satisfies it.
type Player interface {
	Store() *session.Store
	SetQueue(playlistID int64, tracks []models.Track)
	LoadTrack(ctx context.Context, track models.Track) error
	Toggle(ctx context.Context) error
	SeekBy(ctx context.Context, delta float64) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
}

// Options configures a [Model]. Zero values fall back to the defaults of [shared.DefaultConfig].
type Options struct {
	Logger     *log.Logger
	Resolver   tasks.Resolver // used by the import prompt
	Extensions []string
	ImportRate float64
}

// prompt identifies what the text input is collecting.
type prompt int

const (
	promptNone prompt = iota
	promptCreate
	promptImport
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	lib    Library
	player Player
	opts   Options
	logger *log.Logger

	playlists *refresh.Cache[[]models.Playlist]
	trackSets map[int64]*refresh.Cache[[]models.Track]

	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	current      models.Playlist
	tracks       []models.Track

	snap        session.Snapshot
	describedID int64
	nowArtist   string
	nowAlbum    string
	bar         progress.Model

	snapID    string
	snaps     <-chan session.Snapshot
	refreshID string
	notices   <-chan refresh.Notice

	input  textinput.Model
	prompt prompt
	adding *models.Track // waiting for a target playlist

	err    error  // fatal: shown instead of the views
	status error  // last command failure, shown in the footer
	info   string // last library action that succeeded
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model and subscribes it to session snapshots and library refresh notices.
// Call [Model.Close] after the program exits.
func NewModel(ctx context.Context, lib Library, player Player, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Resolver == nil {
		opts.Resolver = metadata.NewResolver(opts.Logger)
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = shared.DefaultConfig().Library.Extensions
	}
	m := &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		lib:          lib,
		player:       player,
		opts:         opts,
		logger:       shared.WithLogger(opts.Logger, "component", "ui"),
		playlists:    lib.PlaylistsCache(),
		trackSets:    map[int64]*refresh.Cache[[]models.Track]{},
		input:        textinput.New(),
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.playlistList.Title = "Playlists"
	m.trackList.Title = "Tracks"

	m.snapID, m.snaps = player.Store().Subscribe()
	m.refreshID, m.notices = lib.Refresh().Subscribe()
	return m
}

// Close releases the model's subscriptions.
func (m *Model) Close() {
	m.player.Store().Unsubscribe(m.snapID)
	if err := m.lib.Refresh().Unsubscribe(m.refreshID); err != nil {
		m.logger.Warn("refresh unsubscribe failed", "error", err)
	}
}

// Init fetches playlists and starts listening for snapshots and refresh notices.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.waitForSnapshot(), m.waitForRefresh())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = max(10, msg.Width-24)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		p := msg.data.(playlistsPayload)
		if p.err != nil {
			m.err = p.err
			return m, nil
		}
		m.forgetDeleted(p.items)
		items := make([]list.Item, len(p.items))
		for i, it := range p.items {
			items[i] = it
		}
		return m, m.playlistList.SetItems(items)

	case MsgTracksFetched:
		return m, m.applyTracks(msg.data.(tracksPayload))

	case MsgSnapshot:
		snap, ok := msg.data.(session.Snapshot)
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.applySnapshot(snap), m.waitForSnapshot())

	case MsgRefresh:
		n, ok := msg.data.(refresh.Notice)
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.onRefresh(n), m.waitForRefresh())

	case MsgDescribed:
		p := msg.data.(describedPayload)
		if p.trackID == m.describedID {
			m.nowArtist, m.nowAlbum = p.artist, p.album
		}
		return m, nil

	case MsgCommandDone:
		err, _ := msg.data.(error)
		m.status = err
		if err != nil {
			m.info = ""
			m.logger.Warn("command failed", "error", err)
		}
		return m, nil

	case MsgInfo:
		m.status = nil
		m.info, _ = msg.data.(string)
		return m, nil
	}
	return m, nil
}

// applyTracks shows a fetched track list and keeps the playback queue in step with its playlist.
func (m *Model) applyTracks(p tracksPayload) tea.Cmd {
	if p.err != nil {
		if p.playlistID != m.current.PlaylistID || (!p.open && m.view == PlaylistListView) {
			m.logger.Warn("track refetch failed", "playlist", p.playlistID, "error", p.err)
			return nil
		}
		m.status = p.err
		m.view = PlaylistListView
		return nil
	}

	tracks := make([]models.Track, len(p.items))
	items := make([]list.Item, len(p.items))
	for i, it := range p.items {
		items[i] = it
		tracks[i] = it.track
	}

	if snap := m.player.Store().Get(); snap.Track != nil && snap.PlaylistID == p.playlistID {
		m.player.SetQueue(p.playlistID, tracks)
	}
	if p.playlistID != m.current.PlaylistID {
		return nil
	}

	m.tracks = tracks
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.current.Name)
	if p.open {
		m.view = TrackListView
	}
	return m.trackList.SetItems(items)
}

// forgetDeleted drops caches and selections that point at playlists no longer in the library.
func (m *Model) forgetDeleted(items []playlistItem) {
	live := make(map[int64]bool, len(items))
	for _, it := range items {
		live[it.playlist.PlaylistID] = true
	}
	for id := range m.trackSets {
		if !live[id] {
			delete(m.trackSets, id)
		}
	}
	if m.current.PlaylistID != 0 && !live[m.current.PlaylistID] {
		m.current = models.Playlist{}
		m.tracks = nil
		m.trackList.SetItems(nil)
		if m.view == TrackListView {
			m.view = PlaylistListView
		}
	}
}

// applySnapshot stores the new state, resolves names for a newly loaded track and advances at end of track.
func (m *Model) applySnapshot(snap session.Snapshot) tea.Cmd {
	prev := m.snap
	m.snap = snap

	var cmds []tea.Cmd
	if snap.Track != nil && snap.Track.TrackID != m.describedID {
		m.describedID = snap.Track.TrackID
		m.nowArtist, m.nowAlbum = "", ""
		cmds = append(cmds, m.describe(*snap.Track))
	}
	if snap.Finished() && !prev.Finished() && prev.Track != nil {
		cmds = append(cmds, m.run(m.player.Next))
	}
	return tea.Batch(cmds...)
}

func (m *Model) onRefresh(n refresh.Notice) tea.Cmd {
	if n.Topic == refresh.PlaylistsChanged {
		return m.fetchPlaylists()
	}
	id, ok := n.Topic.PlaylistID()
	if !ok {
		return nil
	}

	cmds := []tea.Cmd{m.fetchPlaylists()}
	switch snap := m.player.Store().Get(); {
	case m.view != PlaylistListView && id == m.current.PlaylistID:
		cmds = append(cmds, m.fetchTracks(m.current, false))
	case snap.Track != nil && id == snap.PlaylistID:
		cmds = append(cmds, m.fetchTracks(models.Playlist{PlaylistID: id}, false))
	}
	return tea.Batch(cmds...)
}

func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistListView:
		return m.playlistList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKeys(msg)
	}
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.playing):
		if m.snap.Track != nil {
			if m.adding != nil {
				m.finishAdding()
			}
			m.view = NowPlayingView
		}
		return m, nil
	}

	switch m.view {
	case PlaylistListView:
		return m.handlePlaylistListKeys(msg)
	case TrackListView:
		return m.handleTrackListKeys(msg)
	case NowPlayingView:
		return m.handleNowPlayingKeys(msg)
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding != nil {
		return m.handleAddTargetKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.current = pl.playlist
			return m, m.fetchTracks(pl.playlist, true)
		}
		return m, nil
	case key.Matches(msg, m.keys.create):
		return m, m.openPrompt(promptCreate)
	case key.Matches(msg, m.keys.importPath):
		return m, m.openPrompt(promptImport)
	case key.Matches(msg, m.keys.delete):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.deletePlaylist(pl.playlist)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

// handleAddTargetKeys picks the playlist that receives m.adding.
func (m *Model) handleAddTargetKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.finishAdding()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		pl, ok := m.playlistList.SelectedItem().(playlistItem)
		if !ok {
			return m, nil
		}
		track := *m.adding
		m.finishAdding()
		return m, m.addTrack(track, pl.playlist)
	}
	return m.updateLists(msg)
}

func (m *Model) finishAdding() {
	m.adding = nil
	m.playlistList.Title = "Playlists"
	m.view = TrackListView
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		it, ok := m.trackList.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		m.player.SetQueue(m.current.PlaylistID, m.tracks)
		m.view = NowPlayingView
		return m, m.run(func(ctx context.Context) error { return m.player.LoadTrack(ctx, it.track) })
	case key.Matches(msg, m.keys.add):
		it, ok := m.trackList.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		m.adding = &it.track
		m.playlistList.Title = fmt.Sprintf("Add '%s' to", it.track.Name)
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if it, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.removeTrack(it.track, m.current)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = TrackListView
		if m.current.PlaylistID == 0 {
			m.view = PlaylistListView
		}
	case key.Matches(msg, m.keys.toggle):
		return m, m.run(m.player.Toggle)
	case key.Matches(msg, m.keys.next):
		return m, m.run(m.player.Next)
	case key.Matches(msg, m.keys.previous):
		return m, m.run(m.player.Previous)
	case key.Matches(msg, m.keys.forward):
		return m, m.run(func(ctx context.Context) error { return m.player.SeekBy(ctx, seekStep) })
	case key.Matches(msg, m.keys.rewind):
		return m, m.run(func(ctx context.Context) error { return m.player.SeekBy(ctx, -seekStep) })
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg(fn(ctx))
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	lib, cache := m.lib, m.playlists
	return func() tea.Msg {
		playlists, err := cache.Get()
		if err != nil {
			return playlistsFetchedMsg(nil, err)
		}
		items := make([]playlistItem, 0, len(playlists))
		for _, p := range playlists {
			count, err := lib.CountTracks(p.PlaylistID)
			if err != nil {
				return playlistsFetchedMsg(nil, err)
			}
			items = append(items, playlistItem{playlist: p, count: count})
		}
		return playlistsFetchedMsg(items, nil)
	}
}

// fetchTracks loads p's tracks through its cache. open switches to the track list when they arrive.
func (m *Model) fetchTracks(p models.Playlist, open bool) tea.Cmd {
	cache, ok := m.trackSets[p.PlaylistID]
	if !ok {
		cache = m.lib.TracksCache(p.PlaylistID)
		m.trackSets[p.PlaylistID] = cache
	}

	lib := m.lib
	return func() tea.Msg {
		tracks, err := cache.Get()
		if err != nil {
			return tracksFetchedMsg(p.PlaylistID, open, nil, err)
		}
		items := make([]trackItem, len(tracks))
		for i, t := range tracks {
			artist, album := lib.Describe(t)
			items[i] = trackItem{track: t, artist: artist, album: album}
		}
		return tracksFetchedMsg(p.PlaylistID, open, items, nil)
	}
}

func (m *Model) describe(t models.Track) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		artist, album := lib.Describe(t)
		return describedMsg(t.TrackID, artist, album)
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.snaps
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg(snap, ok)
	}
}

func (m *Model) waitForRefresh() tea.Cmd {
	ch := m.notices
	return func() tea.Msg {
		n, ok := <-ch
		return refreshMsg(n, ok)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case PlaylistListView:
		body = m.renderPlaylistList()
	case TrackListView:
		body = m.renderTrackList()
	case NowPlayingView:
		body = m.renderNowPlaying()
	}

	switch {
	case m.prompt != promptNone:
		body += "\n" + m.input.View()
	case m.status != nil:
		body += "\n" + styles.warn.Render(statusText(m.status))
	case m.info != "":
		body += "\n" + styles.ok.Render(m.info)
	}
	return body
}

func statusText(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return "Nothing to play next: the current track is not in this queue"
	case errors.Is(err, shared.ErrEngineCommand):
		return fmt.Sprintf("Player error: %v", err)
	default:
		return err.Error()
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.create, m.keys.delete, m.keys.importPath, m.keys.playing, m.keys.quit}
	if m.adding != nil {
		addKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add here"))
		cancelKey := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
		helpKeys = []key.Binding{addKey, cancelKey}
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	playKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
	helpKeys := []key.Binding{playKey, m.keys.add, m.keys.remove, m.keys.back, m.keys.playing, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Now Playing"))
	b.WriteString("\n")

	if m.snap.Track == nil {
		b.WriteString(styles.status.Render("Nothing loaded"))
	} else {
		b.WriteString(styles.track.Render(m.snap.Track.Name))
		b.WriteString("\n")
		if m.nowArtist != "" {
			b.WriteString(styles.status.Render(fmt.Sprintf("%s • %s", m.nowArtist, m.nowAlbum)))
			b.WriteString("\n")
		}
		b.WriteString("\n  ")

		pct := 0.0
		if m.snap.Duration > 0 {
			pct = min(1, m.snap.Position/m.snap.Duration)
		}
		b.WriteString(m.bar.ViewAs(pct))
		b.WriteString(fmt.Sprintf("  %s / %s",
			shared.FormatSeconds(m.snap.Position), shared.FormatSeconds(m.snap.Duration)))
		b.WriteString("\n")
		b.WriteString(styles.status.Render(m.snap.State.String()))
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.rewind, m.keys.forward, m.keys.previous, m.keys.next, m.keys.back, m.keys.quit}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}
