package models

import "time"

// ExportTrack is a track with its artist and album names resolved.
type ExportTrack struct {
	Track
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// PlaylistExport is a playlist and its tracks in membership order, ready to be written out.
type PlaylistExport struct {
	Playlist   Playlist      `json:"playlist"`
	Tracks     []ExportTrack `json:"tracks"`
	ExportedAt time.Time     `json:"exported_at"`
}

// TotalDuration sums track durations in seconds.
func (e PlaylistExport) TotalDuration() int {
	total := 0
	for _, t := range e.Tracks {
		total += t.Duration
	}
	return total
}

// PlaylistExportResult is the outcome of exporting one playlist in a batch.
type PlaylistExportResult struct {
	PlaylistID   int64    `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
}

// BulkExportResult summarises a multi-playlist export.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}
