package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// ArtistRepository reads and creates Artists rows.
type ArtistRepository struct {
	db Querier
}

// NewArtistRepository creates a new ArtistRepository over db or a transaction.
func NewArtistRepository(db Querier) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// GetOrCreate returns the id of the artist named name, inserting it when absent.
func (r *ArtistRepository) GetOrCreate(name string) (int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT ArtistID FROM Artists WHERE Name = ? ORDER BY ArtistID LIMIT 1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up artist: %w", err)
	}

	result, err := r.db.Exec("INSERT INTO Artists (Name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artist: %w", err)
	}
	return result.LastInsertId()
}

// Get retrieves an artist by id.
func (r *ArtistRepository) Get(id int64) (*models.Artist, error) {
	var artist models.Artist
	err := r.db.QueryRow("SELECT ArtistID, Name FROM Artists WHERE ArtistID = ?", id).Scan(&artist.ArtistID, &artist.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}
	return &artist, nil
}

// List returns every artist ordered by name.
func (r *ArtistRepository) List() ([]models.Artist, error) {
	rows, err := r.db.Query("SELECT ArtistID, Name FROM Artists ORDER BY Name, ArtistID")
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		var a models.Artist
		if err := rows.Scan(&a.ArtistID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return artists, nil
}
