package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// AlbumRepository reads and creates Albums rows. An album is identified by its name together with its artist.
type AlbumRepository struct {
	db Querier
}

// NewAlbumRepository creates a new AlbumRepository over db or a transaction.
func NewAlbumRepository(db Querier) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// GetOrCreate returns the id of the album (name, artistID), inserting it when absent.
func (r *AlbumRepository) GetOrCreate(name string, artistID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(
		"SELECT AlbumID FROM Albums WHERE Name = ? AND ArtistID = ? ORDER BY AlbumID LIMIT 1",
		name, artistID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up album: %w", err)
	}

	result, err := r.db.Exec("INSERT INTO Albums (Name, ArtistID) VALUES (?, ?)", name, artistID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert album: %w", err)
	}
	return result.LastInsertId()
}

// Get retrieves an album by id.
func (r *AlbumRepository) Get(id int64) (*models.Album, error) {
	var album models.Album
	err := r.db.QueryRow(
		"SELECT AlbumID, Name, ArtistID FROM Albums WHERE AlbumID = ?", id,
	).Scan(&album.AlbumID, &album.Name, &album.ArtistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("album %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}
	return &album, nil
}

// ListByArtist returns the albums credited to artistID.
func (r *AlbumRepository) ListByArtist(artistID int64) ([]models.Album, error) {
	rows, err := r.db.Query(
		"SELECT AlbumID, Name, ArtistID FROM Albums WHERE ArtistID = ? ORDER BY Name, AlbumID", artistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []models.Album
	for rows.Next() {
		var a models.Album
		if err := rows.Scan(&a.AlbumID, &a.Name, &a.ArtistID); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}
