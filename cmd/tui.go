package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lark/internal/session"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/desertthunder/lark/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive library browser and player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	svc, err := r.library()
	if err != nil {
		return err
	}

	eng := r.newEngine()
	defer eng.Terminate()

	sess, err := session.New(eng, session.Options{Logger: r.logger})
	if err != nil {
		return err
	}
	defer sess.Close()

	model := ui.NewModel(ctx, svc, sess, ui.Options{
		Logger:     r.logger,
		Resolver:   r.resolver,
		Extensions: r.config.Library.Extensions,
		ImportRate: r.config.Library.ImportRate,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
