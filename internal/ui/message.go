package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lark/internal/refresh"
	"github.com/desertthunder/lark/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgTracksFetched
	MsgSnapshot
	MsgRefresh
	MsgDescribed
	MsgCommandDone
	MsgInfo
)

type playlistsPayload struct {
	items []playlistItem
	err   error
}

type tracksPayload struct {
	playlistID int64
	open       bool // switch to the track list once loaded
	items      []trackItem
	err        error
}

type describedPayload struct {
	trackID int64
	artist  string
	album   string
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(items []playlistItem, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{items, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlistID int64, open bool, items []trackItem, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksPayload{playlistID, open, items, err}}
}

// snapshotMsg is the constructor for [MsgSnapshot]. ok is false once the store closed the subscription.
func snapshotMsg(snap session.Snapshot, ok bool) Msg {
	if !ok {
		return Msg{kind: MsgSnapshot}
	}
	return Msg{kind: MsgSnapshot, data: snap}
}

// refreshMsg is the constructor for [MsgRefresh]
func refreshMsg(n refresh.Notice, ok bool) Msg {
	if !ok {
		return Msg{kind: MsgRefresh}
	}
	return Msg{kind: MsgRefresh, data: n}
}

// describedMsg is the constructor for [MsgDescribed]
func describedMsg(trackID int64, artist, album string) Msg {
	return Msg{kind: MsgDescribed, data: describedPayload{trackID, artist, album}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(err error) Msg {
	return Msg{kind: MsgCommandDone, data: err}
}

// infoMsg is the constructor for [MsgInfo], a successful library action worth reporting in the footer.
func infoMsg(text string) Msg {
	return Msg{kind: MsgInfo, data: text}
}
