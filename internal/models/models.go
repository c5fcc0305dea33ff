package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/lark/internal/shared"
)

// SentinelPlaylistID is the reserved "All Tracks" playlist that every imported track joins.
const SentinelPlaylistID int64 = 1

// SentinelPlaylistName is the seeded name of the sentinel playlist.
const SentinelPlaylistName = "All Tracks"

const (
	MinPlaylistNameLength = 4
	MaxPlaylistNameLength = 30
)

// Fallback names used when a file carries no tags.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Model is implemented by every entity that can check its own fields before a write.
type Model interface {
	Validate() error
}

type Artist struct {
	ArtistID int64  `json:"artist_id"`
	Name     string `json:"name"`
}

type Album struct {
	AlbumID  int64  `json:"album_id"`
	Name     string `json:"name"`
	ArtistID int64  `json:"artist_id"`
}

// Track is an imported audio file. Duration is in whole seconds.
type Track struct {
	TrackID  int64  `json:"track_id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	ArtistID int64  `json:"artist_id"`
	AlbumID  int64  `json:"album_id"`
	Duration int    `json:"duration"`
}

type Playlist struct {
	PlaylistID int64  `json:"playlist_id"`
	Name       string `json:"name"`
}

// Membership is one TrackPlaylist row.
type Membership struct {
	TrackID    int64 `json:"track_id"`
	PlaylistID int64 `json:"playlist_id"`
}

// Metadata describes a file at import time.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	TrackNumber int
	Duration    int
}

// IsSentinel reports whether p is the reserved "All Tracks" playlist.
func (p Playlist) IsSentinel() bool {
	return p.PlaylistID == SentinelPlaylistID
}

// Validate checks the name length bounds. Length is counted in characters, not bytes.
func (p Playlist) Validate() error {
	return ValidatePlaylistName(p.Name)
}

// ValidatePlaylistName rejects names outside [MinPlaylistNameLength, MaxPlaylistNameLength].
func ValidatePlaylistName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinPlaylistNameLength || n > MaxPlaylistNameLength {
		return fmt.Errorf("%w: playlist name must be %d-%d characters, got %d",
			shared.ErrValidation, MinPlaylistNameLength, MaxPlaylistNameLength, n)
	}
	return nil
}

func (t Track) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: track name is required", shared.ErrValidation)
	}
	if t.Path == "" {
		return fmt.Errorf("%w: track path is required", shared.ErrValidation)
	}
	if t.Duration < 0 {
		return fmt.Errorf("%w: track duration must not be negative", shared.ErrValidation)
	}
	return nil
}

// WithFallbacks fills empty fields with the Unknown names. An empty album artist takes the track artist.
func (m Metadata) WithFallbacks(title string) Metadata {
	if m.Title == "" {
		m.Title = title
	}
	if m.Artist == "" {
		m.Artist = UnknownArtist
	}
	if m.Album == "" {
		m.Album = UnknownAlbum
	}
	if m.AlbumArtist == "" {
		m.AlbumArtist = m.Artist
	}
	if m.Duration < 0 {
		m.Duration = 0
	}
	return m
}

// TitleFromPath is the name given to untagged files: the base name without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
