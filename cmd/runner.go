package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/engine"
	"github.com/desertthunder/lark/internal/library"
	"github.com/desertthunder/lark/internal/metadata"
	"github.com/desertthunder/lark/internal/refresh"
	"github.com/desertthunder/lark/internal/repositories"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/desertthunder/lark/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	db       *shared.Database
	refresh  *refresh.Coordinator
	resolver tasks.Resolver
	probe    func(path string) (time.Duration, error)
	logger   *log.Logger
	output   io.Writer

	svc *library.Service
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Database *shared.Database // opened lazily from Config.Database when nil
	Resolver tasks.Resolver   // defaults to the tag + decoder resolver
	Probe    func(path string) (time.Duration, error)
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Database == nil {
		opts.Database = shared.NewLazyDatabase(opts.Config.Database)
	}
	if opts.Resolver == nil {
		opts.Resolver = metadata.NewResolver(opts.Logger)
	}

	return &Runner{
		config:   opts.Config,
		db:       opts.Database,
		refresh:  refresh.NewCoordinator(opts.Logger),
		resolver: opts.Resolver,
		probe:    opts.Probe,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, playlistCommand, libraryCommand, playCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database handle.
func (r *Runner) Close() error {
	return r.db.Close()
}

// library returns the shared library service, opening and migrating the database on first use.
func (r *Runner) library() (*library.Service, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	db, err := r.db.Handle()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrDatabaseUnavailable, err)
	}
	r.svc = library.NewService(repositories.NewLibrary(db), r.refresh, r.logger)
	return r.svc, nil
}

// newEngine builds the local playback engine from the [player] config section.
func (r *Runner) newEngine() *engine.Local {
	return engine.NewLocal(engine.Options{
		TickInterval: r.config.Player.TickInterval.Duration,
		Autoplay:     r.config.Player.Autoplay,
		Probe:        r.probe,
		Logger:       r.logger,
	})
}

func parseID(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: playlist id must be a positive integer, got %q", shared.ErrInvalidArgument, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
