package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/lark/internal/formatter"
	"github.com/desertthunder/lark/internal/models"
	"golang.org/x/time/rate"
)

// ExportSource reads what an export needs. repositories.Library satisfies it.
type ExportSource interface {
	GetPlaylist(id int64) (*models.Playlist, error)
	ListTracks(playlistID int64) ([]models.Track, error)
	Describe(track models.Track) (artist, album string)
}

// BuildExport loads a playlist with its tracks in membership order and resolves artist and album names.
func BuildExport(src ExportSource, playlistID int64) (*models.PlaylistExport, error) {
	playlist, err := src.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	tracks, err := src.ListTracks(playlistID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{
		Playlist:   *playlist,
		Tracks:     make([]models.ExportTrack, 0, len(tracks)),
		ExportedAt: time.Now().UTC(),
	}
	for _, t := range tracks {
		artist, album := src.Describe(t)
		export.Tracks = append(export.Tracks, models.ExportTrack{Track: t, Artist: artist, Album: album})
	}
	return export, nil
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // m3u, csv, markdown, txt, json
	OutputDir  string  // Base output directory (default: lark_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 4, max 10)
	RateLimit  float64 // Playlist reads per second (default: 20)
}

type exportJob struct {
	export *models.PlaylistExport
}

// ExportPlaylists writes each playlist in ids to opts.OutputDir through a worker pool and records a manifest.
//
// A playlist that cannot be read or written is reported as failed in the result; the others still export.
func ExportPlaylists(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	src ExportSource,
	ids []int64,
	opts BulkExportOpts,
) (*models.BulkExportResult, error) {
	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("lark_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]models.PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan models.PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		sendProgress(prog, fetchingPlaylistsUpdate(len(ids)))
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := BuildExport(src, id)
			if err != nil {
				results <- models.PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%d)", id),
					Error:        fmt.Errorf("failed to read playlist: %w", err),
				}
				continue
			}

			jobs <- exportJob{export: export}
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), export.Playlist.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- models.PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := models.PlaylistExportResult{
			PlaylistID:   job.export.Playlist.PlaylistID,
			PlaylistName: job.export.Playlist.Name,
		}
		files, err := formatter.WriteExport(job.export, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.Files = files
			res.Success = true
		}
		results <- res
	}
}
