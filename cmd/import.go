package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lark/internal/shared"
	"github.com/desertthunder/lark/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Import expands the given paths into audio files and imports them one at a time.
// A file that fails is reported and skipped; the rest of the queue still runs.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file or directory", shared.ErrMissingArgument)
	}

	files, err := tasks.ExpandPaths(paths, r.config.Library.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.writePlain("No audio files found\n")
		return nil
	}

	svc, err := r.library()
	if err != nil {
		return err
	}

	rateLimit := r.config.Library.ImportRate
	if v := cmd.Float64("rate"); v >= 0 {
		rateLimit = v
	}

	queue := tasks.NewImportQueue(svc, r.resolver, tasks.ImportOpts{RateLimit: rateLimit, Logger: r.logger})
	queue.Enqueue(files...)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := queue.Run(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		r.writePlain("\nImport interrupted, %d files not processed\n", queue.Len())
		return err
	}

	r.writePlainln("Imported %d of %d files", result.Imported, len(files))
	for _, o := range result.Failures() {
		r.writePlain("  failed: %s: %v\n", o.Path, o.Err)
	}
	return nil
}
