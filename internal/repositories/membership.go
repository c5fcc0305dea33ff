package repositories

import (
	"fmt"

	"github.com/desertthunder/lark/internal/models"
)

// MembershipRepository manages TrackPlaylist rows.
type MembershipRepository struct {
	db Querier
}

// NewMembershipRepository creates a new MembershipRepository over db or a transaction.
func NewMembershipRepository(db Querier) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add inserts the (trackID, playlistID) pair. An existing pair is left untouched and keeps its position.
func (r *MembershipRepository) Add(trackID, playlistID int64) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO TrackPlaylist (TrackID, PlaylistID) VALUES (?, ?)", trackID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to add track to playlist: %w", err)
	}
	return nil
}

// Remove deletes the pair if present.
func (r *MembershipRepository) Remove(trackID, playlistID int64) error {
	_, err := r.db.Exec("DELETE FROM TrackPlaylist WHERE TrackID = ? AND PlaylistID = ?", trackID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to remove track from playlist: %w", err)
	}
	return nil
}

// Tracks returns the tracks of playlistID in the order their membership rows were inserted.
func (r *MembershipRepository) Tracks(playlistID int64) ([]models.Track, error) {
	query := `
		SELECT ` + trackColumns + `
		FROM TrackPlaylist tp
		JOIN Tracks t ON t.TrackID = tp.TrackID
		WHERE tp.PlaylistID = ?
		ORDER BY tp.rowid ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// Count returns the number of membership rows for playlistID.
func (r *MembershipRepository) Count(playlistID int64) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM TrackPlaylist WHERE PlaylistID = ?", playlistID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count playlist tracks: %w", err)
	}
	return n, nil
}
