package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// PlaylistRepository persists rows of the Playlists table.
//
// It does not guard the sentinel playlist; [Library] does that before calling in.
type PlaylistRepository struct {
	db Querier
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection or transaction
func NewPlaylistRepository(db Querier) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create validates and inserts playlist, assigning its PlaylistID.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}

	result, err := r.db.Exec("INSERT INTO Playlists (Name) VALUES (?)", playlist.Name)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read playlist id: %w", err)
	}
	playlist.PlaylistID = id
	return nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(id int64) (*models.Playlist, error) {
	var p models.Playlist
	err := r.db.QueryRow("SELECT PlaylistID, Name FROM Playlists WHERE PlaylistID = ?", id).Scan(&p.PlaylistID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}

// Exists reports whether a playlist with id is present.
func (r *PlaylistRepository) Exists(id int64) (bool, error) {
	return exists(r.db, "SELECT 1 FROM Playlists WHERE PlaylistID = ?", id)
}

// Rename validates name and updates the playlist row.
func (r *PlaylistRepository) Rename(id int64, name string) error {
	if err := models.ValidatePlaylistName(name); err != nil {
		return err
	}

	result, err := r.db.Exec("UPDATE Playlists SET Name = ? WHERE PlaylistID = ?", name, id)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	return requireRow(result, id)
}

// Delete removes the playlist's membership rows and then the playlist row.
// Run it on a transaction so both statements commit together.
func (r *PlaylistRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM TrackPlaylist WHERE PlaylistID = ?", id); err != nil {
		return fmt.Errorf("failed to delete playlist memberships: %w", err)
	}

	result, err := r.db.Exec("DELETE FROM Playlists WHERE PlaylistID = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return requireRow(result, id)
}

// List retrieves playlists ordered by PlaylistID.
//
// Supported criteria: "user_only" (bool) excludes the sentinel playlist.
func (r *PlaylistRepository) List(criteria map[string]any) ([]models.Playlist, error) {
	query := "SELECT PlaylistID, Name FROM Playlists"
	args := []any{}

	if userOnly, ok := criteria["user_only"].(bool); ok && userOnly {
		query += " WHERE PlaylistID <> ?"
		args = append(args, models.SentinelPlaylistID)
	}

	query += " ORDER BY PlaylistID ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.PlaylistID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
	}
	return nil
}
