// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [PlaylistListView] : Browse playlists, including "All Tracks"
//  2. [TrackListView] : Browse a playlist's tracks and start playback
//  3. [NowPlayingView] : Progress bar, play/pause, seek and next/previous
//
// The (view) [Model] follows the standard Init/Update/View pattern and receives messages via the [Msg] union type.
// Two channels feed it from outside the event loop: session snapshots, which drive the now-playing view, and refresh
// notices, which make the list views refetch after library writes.
//
// Writes start from the list views: c creates a playlist and i imports a file or directory, both through a text
// prompt; d deletes the selected playlist; a adds the selected track to a playlist picked from the list and x removes
// it from the open one. The views read through refresh caches, so only the lists a write touched are fetched again,
// and a refetch of the playing playlist also replaces the playback queue.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
