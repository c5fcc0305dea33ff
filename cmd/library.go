package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lark/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryPath prints the file that stores the library, or ":memory:" for an in-memory database.
func (r *Runner) LibraryPath(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	path, err := svc.ResolveStoragePath()
	if err != nil {
		return err
	}
	if path == "" {
		path = ":memory:"
	}
	return r.writePlain("%s\n", path)
}

func (r *Runner) LibraryVersion(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	version, err := shared.CurrentVersion(svc.DB())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	return r.writePlain("%d\n", version)
}

func (r *Runner) LibraryRollback(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	if err := shared.RollbackMigration(svc.DB()); err != nil {
		return err
	}

	version, err := shared.CurrentVersion(svc.DB())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Warn("rolled back schema migration", "version", version)
	return r.writePlain("Schema now at version %d\n", version)
}
