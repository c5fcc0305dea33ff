package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
	"golang.org/x/time/rate"
)

// Importer stores one resolved file. library.Service satisfies it.
type Importer interface {
	ImportTrack(path string, md models.Metadata) (*models.Track, error)
}

// Resolver reads a file's tags and duration. metadata.Resolver satisfies it.
type Resolver interface {
	Resolve(path string) (models.Metadata, error)
}

// ImportOutcome records what happened to one queued file.
type ImportOutcome struct {
	Path  string
	Track *models.Track // nil on failure
	Err   error
}

// ImportResult lists outcomes in queue order.
type ImportResult struct {
	Outcomes []ImportOutcome
	Imported int
	Failed   int
}

// Failures returns the failed outcomes.
func (r *ImportResult) Failures() []ImportOutcome {
	var out []ImportOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// ImportOpts configures an [ImportQueue].
type ImportOpts struct {
	RateLimit float64 // files per second, 0 disables throttling
	Logger    *log.Logger
}

// ImportQueue is an ordered list of files awaiting import.
type ImportQueue struct {
	lib      Importer
	resolver Resolver
	limiter  *rate.Limiter
	logger   *log.Logger

	mu    sync.Mutex
	paths []string
}

func NewImportQueue(lib Importer, resolver Resolver, opts ImportOpts) *ImportQueue {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	q := &ImportQueue{
		lib:      lib,
		resolver: resolver,
		logger:   shared.WithLogger(opts.Logger, "component", "import"),
	}
	if opts.RateLimit > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return q
}

// Enqueue appends paths to the end of the queue.
func (q *ImportQueue) Enqueue(paths ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paths = append(q.paths, paths...)
}

// Len returns the number of queued files.
func (q *ImportQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.paths)
}

// Run drains the queue sequentially. Each file is resolved and stored before the next one starts;
// a failure is recorded and the next file proceeds. Only context cancellation stops the run early,
// in which case the outcomes so far are returned with the context error and unprocessed files stay queued.
func (q *ImportQueue) Run(ctx context.Context, progress chan<- ProgressUpdate) (*ImportResult, error) {
	q.mu.Lock()
	pending := q.paths
	q.paths = nil
	q.mu.Unlock()

	total := len(pending)
	result := &ImportResult{Outcomes: make([]ImportOutcome, 0, total)}
	sendProgress(progress, importStartUpdate(total))

	for i, path := range pending {
		if err := q.wait(ctx); err != nil {
			q.requeue(pending[i:])
			return result, err
		}

		outcome := q.importOne(path)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Err != nil {
			result.Failed++
			q.logger.Warn("import failed", "path", path, "error", outcome.Err)
			sendProgress(progress, importFailedUpdate(i+1, total, path, outcome.Err))
			continue
		}
		result.Imported++
		sendProgress(progress, importedUpdate(i+1, total, outcome.Track))
	}

	q.logger.Info("import finished", "imported", result.Imported, "failed", result.Failed)
	return result, nil
}

func (q *ImportQueue) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.limiter == nil {
		return nil
	}
	return q.limiter.Wait(ctx)
}

func (q *ImportQueue) requeue(paths []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paths = append(append([]string(nil), paths...), q.paths...)
}

func (q *ImportQueue) importOne(path string) ImportOutcome {
	md, err := q.resolver.Resolve(path)
	if err != nil {
		return ImportOutcome{Path: path, Err: err}
	}
	track, err := q.lib.ImportTrack(path, md)
	if err != nil {
		return ImportOutcome{Path: path, Err: err}
	}
	return ImportOutcome{Path: path, Track: track}
}

// CollectAudioFiles walks dir and returns files whose extension is in exts, in lexical order.
func CollectAudioFiles(dir string, exts []string) ([]string, error) {
	accept := shared.LibraryConfig{Extensions: exts}
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && accept.HasExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return files, nil
}

// ExpandPaths replaces each directory in paths with the audio files under it. Plain files are kept as given.
func ExpandPaths(paths []string, exts []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidArgument, p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := CollectAudioFiles(p, exts)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
