package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// ListOptions filters [Library.ListPlaylists].
type ListOptions struct {
	UserOnly bool // exclude the sentinel playlist
}

// Library is the library store: the schema-level operations the player and CLI call.
//
// Mutations do not signal invalidation themselves; callers publish refresh topics after a successful call.
type Library struct {
	db *sql.DB
}

// NewLibrary creates a Library over an open, migrated database.
func NewLibrary(db *sql.DB) *Library {
	return &Library{db: db}
}

// DB returns the underlying handle.
func (l *Library) DB() *sql.DB {
	return l.db
}

// ResolveStoragePath returns the file backing the main database. In-memory databases report an empty path.
func (l *Library) ResolveStoragePath() (string, error) {
	rows, err := l.db.Query("PRAGMA database_list")
	if err != nil {
		return "", fmt.Errorf("failed to query database list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq  int
			name string
			file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return "", fmt.Errorf("failed to scan database list: %w", err)
		}
		if name == "main" {
			return file.String, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}
	return "", fmt.Errorf("main database %w", shared.ErrNotFound)
}

// ListPlaylists returns playlists by ascending PlaylistID.
func (l *Library) ListPlaylists(opts ListOptions) ([]models.Playlist, error) {
	return NewPlaylistRepository(l.db).List(map[string]any{"user_only": opts.UserOnly})
}

// GetPlaylist retrieves one playlist.
func (l *Library) GetPlaylist(id int64) (*models.Playlist, error) {
	return NewPlaylistRepository(l.db).Get(id)
}

// ListTracks returns the tracks of playlistID in membership insertion order.
// An unknown playlist yields [shared.ErrPlaylistNotFound].
func (l *Library) ListTracks(playlistID int64) ([]models.Track, error) {
	ok, err := NewPlaylistRepository(l.db).Exists(playlistID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, playlistID)
	}
	return NewMembershipRepository(l.db).Tracks(playlistID)
}

// CountTracks returns the number of tracks in playlistID.
func (l *Library) CountTracks(playlistID int64) (int, error) {
	return NewMembershipRepository(l.db).Count(playlistID)
}

// CreatePlaylist validates name and inserts a new playlist.
func (l *Library) CreatePlaylist(name string) (*models.Playlist, error) {
	playlist := &models.Playlist{Name: name}
	if err := NewPlaylistRepository(l.db).Create(playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// RenamePlaylist changes a user playlist's name. The sentinel cannot be renamed.
func (l *Library) RenamePlaylist(id int64, name string) error {
	if id == models.SentinelPlaylistID {
		return fmt.Errorf("%w: the %q playlist cannot be renamed", shared.ErrInvariantViolation, models.SentinelPlaylistName)
	}
	return NewPlaylistRepository(l.db).Rename(id, name)
}

// DeletePlaylist removes a playlist and its membership rows atomically. Tracks are kept.
// The sentinel playlist is rejected before any statement runs.
func (l *Library) DeletePlaylist(id int64) error {
	if id == models.SentinelPlaylistID {
		return fmt.Errorf("%w: the %q playlist cannot be deleted", shared.ErrInvariantViolation, models.SentinelPlaylistName)
	}

	return WithTx(l.db, func(tx *sql.Tx) error {
		return NewPlaylistRepository(tx).Delete(id)
	})
}

// AddTrackToPlaylist inserts the membership row; repeating the call is a no-op.
func (l *Library) AddTrackToPlaylist(trackID, playlistID int64) error {
	return WithTx(l.db, func(tx *sql.Tx) error {
		if err := requireMembershipEnds(tx, trackID, playlistID); err != nil {
			return err
		}
		return NewMembershipRepository(tx).Add(trackID, playlistID)
	})
}

// RemoveTrackFromPlaylist deletes the membership row if present.
// Removing from the sentinel is rejected because it holds every imported track.
func (l *Library) RemoveTrackFromPlaylist(trackID, playlistID int64) error {
	if playlistID == models.SentinelPlaylistID {
		return fmt.Errorf("%w: tracks cannot be removed from %q", shared.ErrInvariantViolation, models.SentinelPlaylistName)
	}
	return NewMembershipRepository(l.db).Remove(trackID, playlistID)
}

// ImportTrack stores a file as a new track, creating its artist and album when they are new,
// and joins it to the sentinel playlist. All writes share one transaction.
func (l *Library) ImportTrack(path string, md models.Metadata) (*models.Track, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: track path is required", shared.ErrValidation)
	}

	md = md.WithFallbacks(models.TitleFromPath(path))
	track := &models.Track{Name: md.Title, Path: path, Duration: md.Duration}

	err := WithTx(l.db, func(tx *sql.Tx) error {
		artistID, err := NewArtistRepository(tx).GetOrCreate(md.Artist)
		if err != nil {
			return err
		}

		albumArtistID := artistID
		if md.AlbumArtist != md.Artist {
			if albumArtistID, err = NewArtistRepository(tx).GetOrCreate(md.AlbumArtist); err != nil {
				return err
			}
		}

		albumID, err := NewAlbumRepository(tx).GetOrCreate(md.Album, albumArtistID)
		if err != nil {
			return err
		}

		track.ArtistID = artistID
		track.AlbumID = albumID
		if err := NewTrackRepository(tx).Create(track); err != nil {
			return err
		}

		return NewMembershipRepository(tx).Add(track.TrackID, models.SentinelPlaylistID)
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// GetTrack retrieves one track.
func (l *Library) GetTrack(id int64) (*models.Track, error) {
	return NewTrackRepository(l.db).Get(id)
}

// GetAlbum retrieves one album.
func (l *Library) GetAlbum(id int64) (*models.Album, error) {
	return NewAlbumRepository(l.db).Get(id)
}

// GetArtist retrieves one artist.
func (l *Library) GetArtist(id int64) (*models.Artist, error) {
	return NewArtistRepository(l.db).Get(id)
}

// Describe returns display names for a track's artist and album.
// Missing rows fall back to the Unknown names instead of failing.
func (l *Library) Describe(track models.Track) (artist, album string) {
	artist, album = models.UnknownArtist, models.UnknownAlbum
	if a, err := l.GetArtist(track.ArtistID); err == nil {
		artist = a.Name
	}
	if al, err := l.GetAlbum(track.AlbumID); err == nil {
		album = al.Name
	}
	return artist, album
}

func requireMembershipEnds(q Querier, trackID, playlistID int64) error {
	ok, err := NewTrackRepository(q).Exists(trackID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrTrackNotFound, trackID)
	}

	ok, err = NewPlaylistRepository(q).Exists(playlistID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, playlistID)
	}
	return nil
}

// IsNotFound reports whether err is a missing-row error from this package.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
