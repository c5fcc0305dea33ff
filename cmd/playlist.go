package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lark/internal/formatter"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/repositories"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/desertthunder/lark/internal/tasks"
	"github.com/urfave/cli/v3"
)

type playlistRow struct {
	models.Playlist
	TrackCount int `json:"track_count"`
}

// PlaylistList prints every playlist with its track count.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	playlists, err := svc.ListPlaylists(repositories.ListOptions{UserOnly: cmd.Bool("user-only")})
	if err != nil {
		return err
	}

	rows := make([]playlistRow, 0, len(playlists))
	for _, p := range playlists {
		count, err := svc.CountTracks(p.PlaylistID)
		if err != nil {
			return err
		}
		rows = append(rows, playlistRow{Playlist: p, TrackCount: count})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(rows)))
	for _, row := range rows {
		r.writePlain("%4d  %-30s %d tracks\n", row.PlaylistID, row.Name, row.TrackCount)
	}
	return nil
}

func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	p, err := svc.CreatePlaylist(cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("Created playlist %d: %s\n", p.PlaylistID, p.Name)
}

func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if err := svc.RenamePlaylist(id, name); err != nil {
		return err
	}
	return r.writePlain("Renamed playlist %d to %s\n", id, name)
}

func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	if err := svc.DeletePlaylist(id); err != nil {
		return err
	}
	return r.writePlain("Deleted playlist %d\n", id)
}

func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	trackID, playlistID, err := membershipArgs(cmd)
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	if err := svc.AddTrackToPlaylist(trackID, playlistID); err != nil {
		return err
	}
	return r.writePlain("Added track %d to playlist %d\n", trackID, playlistID)
}

func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	trackID, playlistID, err := membershipArgs(cmd)
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	if err := svc.RemoveTrackFromPlaylist(trackID, playlistID); err != nil {
		return err
	}
	return r.writePlain("Removed track %d from playlist %d\n", trackID, playlistID)
}

func membershipArgs(cmd *cli.Command) (trackID, playlistID int64, err error) {
	if trackID, err = parseID(cmd, "track-id"); err != nil {
		return 0, 0, err
	}
	if playlistID, err = parseID(cmd, "playlist-id"); err != nil {
		return 0, 0, err
	}
	return trackID, playlistID, nil
}

// PlaylistTracks prints a playlist's tracks in membership order with resolved artist and album names.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	export, err := tasks.BuildExport(svc, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(export.Tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d tracks, %s)", export.Playlist.Name, len(export.Tracks),
		shared.FormatSeconds(float64(export.TotalDuration()))))
	for _, t := range export.Tracks {
		r.writePlain("%4d  %s - %s [%s]\n", t.TrackID, t.Artist, t.Name, shared.FormatSeconds(float64(t.Duration)))
	}
	return nil
}

// PlaylistExport writes one playlist directly, or several through the bulk exporter with a manifest.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one playlist id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	svc, err := r.library()
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")

	if len(ids) == 1 {
		if outputDir == "" {
			outputDir = "."
		}
		export, err := tasks.BuildExport(svc, ids[0])
		if err != nil {
			return err
		}
		files, err := formatter.WriteExport(export, format, outputDir)
		if err != nil {
			return err
		}
		for _, f := range files {
			r.writePlain("Wrote %s\n", f)
		}
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, len(ids)*2+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.ExportPlaylists(ctx, progress, svc, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progress)
	<-done

	if result != nil {
		r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  failed: %s: %v\n", res.PlaylistName, res.Error)
			}
		}
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
