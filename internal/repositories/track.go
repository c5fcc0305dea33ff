package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

const trackColumns = "t.TrackID, t.Name, t.Path, t.ArtistID, t.AlbumID, COALESCE(t.Duration, 0)"

// TrackRepository persists imported files in the Tracks table.
type TrackRepository struct {
	db Querier
}

// NewTrackRepository creates a new TrackRepository over db or a transaction.
func NewTrackRepository(db Querier) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts track and sets its TrackID from the new row.
func (r *TrackRepository) Create(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO Tracks (Name, Path, ArtistID, AlbumID, Duration)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, track.Name, track.Path, track.ArtistID, track.AlbumID, track.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read track id: %w", err)
	}
	track.TrackID = id
	return nil
}

// Get retrieves a track by id.
func (r *TrackRepository) Get(id int64) (*models.Track, error) {
	query := "SELECT " + trackColumns + " FROM Tracks t WHERE t.TrackID = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// ListByPath returns every track imported from path. The same file may be imported more than once.
func (r *TrackRepository) ListByPath(path string) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM Tracks t WHERE t.Path = ? ORDER BY t.TrackID"
	rows, err := r.db.Query(query, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}

// Exists reports whether a track with id is present.
func (r *TrackRepository) Exists(id int64) (bool, error) {
	return exists(r.db, "SELECT 1 FROM Tracks WHERE TrackID = ?", id)
}

// scanOne scans a single row into a [models.Track]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.Track, error) {
	var t models.Track
	err := row.Scan(&t.TrackID, &t.Name, &t.Path, &t.ArtistID, &t.AlbumID, &t.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return &t, nil
}

// scanTracks drains rows into a slice of [models.Track]
func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.TrackID, &t.Name, &t.Path, &t.ArtistID, &t.AlbumID, &t.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}
