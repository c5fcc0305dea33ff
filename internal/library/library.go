// Package library joins the library store to refresh invalidation.
//
// [Service] forwards reads to [repositories.Library] and, after each successful write,
// publishes the refresh topics whose views the write made stale.
package library

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/refresh"
	"github.com/desertthunder/lark/internal/repositories"
	"github.com/desertthunder/lark/internal/shared"
)

type Service struct {
	*repositories.Library
	refresh *refresh.Coordinator
	logger  *log.Logger
}

func NewService(lib *repositories.Library, coord *refresh.Coordinator, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		Library: lib,
		refresh: coord,
		logger:  shared.WithLogger(logger, "component", "library"),
	}
}

// Refresh returns the coordinator this service publishes to.
func (s *Service) Refresh() *refresh.Coordinator {
	return s.refresh
}

func (s *Service) CreatePlaylist(name string) (*models.Playlist, error) {
	p, err := s.Library.CreatePlaylist(name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist created", "id", p.PlaylistID, "name", p.Name)
	s.refresh.Publish(refresh.PlaylistsChanged)
	return p, nil
}

func (s *Service) RenamePlaylist(id int64, name string) error {
	if err := s.Library.RenamePlaylist(id, name); err != nil {
		return err
	}
	s.logger.Info("playlist renamed", "id", id, "name", name)
	s.refresh.Publish(refresh.PlaylistsChanged)
	return nil
}

func (s *Service) DeletePlaylist(id int64) error {
	if err := s.Library.DeletePlaylist(id); err != nil {
		return err
	}
	s.logger.Info("playlist deleted", "id", id)
	s.refresh.Publish(refresh.PlaylistsChanged, refresh.TracksChanged(id))
	return nil
}

func (s *Service) AddTrackToPlaylist(trackID, playlistID int64) error {
	if err := s.Library.AddTrackToPlaylist(trackID, playlistID); err != nil {
		return err
	}
	s.refresh.Publish(refresh.TracksChanged(playlistID))
	return nil
}

func (s *Service) RemoveTrackFromPlaylist(trackID, playlistID int64) error {
	if err := s.Library.RemoveTrackFromPlaylist(trackID, playlistID); err != nil {
		return err
	}
	s.refresh.Publish(refresh.TracksChanged(playlistID))
	return nil
}

// ImportTrack stores one file. The sentinel playlist's topic is published on success.
func (s *Service) ImportTrack(path string, md models.Metadata) (*models.Track, error) {
	t, err := s.Library.ImportTrack(path, md)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("track imported", "id", t.TrackID, "path", path)
	s.refresh.Publish(refresh.TracksChanged(models.SentinelPlaylistID))
	return t, nil
}

// TracksCache returns a cache of playlistID's tracks that refetches on its topic.
func (s *Service) TracksCache(playlistID int64) *refresh.Cache[[]models.Track] {
	return refresh.NewCache(s.refresh, refresh.TracksChanged(playlistID), func() ([]models.Track, error) {
		return s.ListTracks(playlistID)
	})
}

// PlaylistsCache returns a cache of every playlist that refetches on PlaylistsChanged.
func (s *Service) PlaylistsCache() *refresh.Cache[[]models.Playlist] {
	return refresh.NewCache(s.refresh, refresh.PlaylistsChanged, func() ([]models.Playlist, error) {
		return s.ListPlaylists(repositories.ListOptions{})
	})
}
