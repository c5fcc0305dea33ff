package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/events"
	"github.com/desertthunder/lark/internal/metadata"
	"github.com/desertthunder/lark/internal/shared"
)

var _ Engine = (*Local)(nil)

// Options configures a [Local] engine.
type Options struct {
	TickInterval time.Duration                            // position update period, defaults to 100ms
	Autoplay     bool                                     // start playing as soon as a load completes
	Probe        func(path string) (time.Duration, error) // defaults to [metadata.ProbeDuration]
	Logger       *log.Logger
}

type op int

const (
	opLoad op = iota
	opPlay
	opPause
	opSeek
)

func (o op) String() string {
	switch o {
	case opLoad:
		return "load"
	case opPlay:
		return "play"
	case opPause:
		return "pause"
	case opSeek:
		return "seek"
	default:
		return ""
	}
}

type command struct {
	op       op
	req      uint64
	path     string
	position float64
	reply    chan error
}

// Local runs a command loop on its own goroutine and advances a playback clock while playing.
// Position updates are emitted every tick; reaching the end of the track emits a final update and Paused.
type Local struct {
	hub    *events.Hub
	cmds   chan command
	done   chan struct{}
	once   sync.Once
	opts   Options
	logger *log.Logger

	// loop-owned state
	path     string
	loadReq  uint64
	duration float64
	position float64
	playing  bool
	lastTick time.Time
}

// NewLocal starts a Local engine. Call [Local.Terminate] to stop it.
func NewLocal(opts Options) *Local {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.Probe == nil {
		opts.Probe = metadata.ProbeDuration
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	e := &Local{
		hub:    events.NewHub(opts.Logger),
		cmds:   make(chan command),
		done:   make(chan struct{}),
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "engine"),
	}
	go e.loop()
	return e
}

func (e *Local) Load(ctx context.Context, req uint64, path string) error {
	return e.send(ctx, command{op: opLoad, req: req, path: path})
}

func (e *Local) Play(ctx context.Context, req uint64) error {
	return e.send(ctx, command{op: opPlay, req: req})
}

func (e *Local) Pause(ctx context.Context, req uint64) error {
	return e.send(ctx, command{op: opPause, req: req})
}

func (e *Local) Seek(ctx context.Context, req uint64, position float64) error {
	return e.send(ctx, command{op: opSeek, req: req, position: position})
}

func (e *Local) Subscribe() (events.Subscription, error) {
	return e.hub.Subscribe()
}

func (e *Local) Unsubscribe(id string) error {
	return e.hub.Unsubscribe(id)
}

// Terminate stops the command loop and closes every subscription. Later commands fail with [shared.ErrEngineCommand].
func (e *Local) Terminate() {
	e.once.Do(func() {
		close(e.done)
		e.hub.Close()
	})
}

func (e *Local) send(ctx context.Context, c command) error {
	c.reply = make(chan error, 1)

	select {
	case e.cmds <- c:
	case <-e.done:
		return fmt.Errorf("%w: %s: engine terminated", shared.ErrEngineCommand, c.op)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Local) loop() {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case c := <-e.cmds:
			c.reply <- e.handle(c)
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

func (e *Local) handle(c command) error {
	if c.op != opLoad && e.path == "" {
		return fmt.Errorf("%w: %s: nothing loaded", shared.ErrEngineCommand, c.op)
	}

	switch c.op {
	case opLoad:
		d, err := e.opts.Probe(c.path)
		if err != nil {
			e.logger.Warn("load failed", "path", c.path, "error", err)
			return fmt.Errorf("%w: load %s: %v", shared.ErrEngineCommand, c.path, err)
		}
		e.path = c.path
		e.loadReq = c.req
		e.duration = d.Seconds()
		e.position = 0
		e.playing = e.opts.Autoplay
		e.lastTick = time.Now()

		if e.playing {
			e.hub.Publish(events.Playing{RequestID: c.req})
		} else {
			e.hub.Publish(events.Paused{RequestID: c.req})
		}
		e.hub.Publish(events.PositionUpdate{RequestID: c.req, Position: 0, Duration: e.duration})

	case opPlay:
		if e.position >= e.duration {
			e.position = 0
		}
		e.playing = true
		e.lastTick = time.Now()
		e.hub.Publish(events.Playing{RequestID: c.req})

	case opPause:
		e.advance(time.Now())
		e.playing = false
		e.hub.Publish(events.Paused{RequestID: c.req})

	case opSeek:
		pos := c.position
		if pos < 0 {
			pos = 0
		}
		if pos > e.duration {
			pos = e.duration
		}
		e.position = pos
		e.lastTick = time.Now()
		e.hub.Publish(events.Seeked{RequestID: c.req, Position: pos})
	}

	e.logger.Debug("command", "op", c.op, "req", c.req, "position", e.position)
	return nil
}

func (e *Local) tick(now time.Time) {
	if !e.playing {
		return
	}
	e.advance(now)
	e.hub.Publish(events.PositionUpdate{RequestID: e.loadReq, Position: e.position, Duration: e.duration})

	if e.position >= e.duration {
		e.playing = false
		e.hub.Publish(events.Paused{RequestID: e.loadReq})
	}
}

func (e *Local) advance(now time.Time) {
	if !e.playing {
		return
	}
	e.position += now.Sub(e.lastTick).Seconds()
	if e.position > e.duration {
		e.position = e.duration
	}
	e.lastTick = now
}
