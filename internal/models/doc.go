// Package models defines the library entities persisted by the repositories package.
//
// The relational model is small:
//   - [Artist] and [Album] are produced by import-time metadata resolution and are never mutated afterwards
//   - [Track] is created once per imported file
//   - [Playlist] is created and destroyed by explicit user action; [SentinelPlaylistID] is reserved for "All Tracks"
//   - [Membership] links tracks to playlists and is unique per (track, playlist) pair
//
// [Metadata] is the import-time description of an audio file before it becomes a [Track].
package models
