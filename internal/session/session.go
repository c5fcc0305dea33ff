package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/engine"
	"github.com/desertthunder/lark/internal/events"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/navigation"
	"github.com/desertthunder/lark/internal/shared"
)

// State is the playback state machine position.
type State int

const (
	Idle State = iota
	LoadedPaused
	LoadedPlaying
	Seeking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadedPaused:
		return "paused"
	case LoadedPlaying:
		return "playing"
	case Seeking:
		return "seeking"
	default:
		return ""
	}
}

// Loaded reports whether a track is loaded, including while seeking.
func (s State) Loaded() bool {
	return s != Idle
}

// Snapshot is an immutable copy of session state. Positions are in seconds.
type Snapshot struct {
	State      State
	Track      *models.Track
	PlaylistID int64
	Queue      []models.Track
	Position   float64
	Duration   float64
}

// Finished reports whether the loaded track stopped at its end.
func (s Snapshot) Finished() bool {
	return s.State == LoadedPaused && s.Duration > 0 && s.Position >= s.Duration
}

// Options configures a [Session].
type Options struct {
	Logger *log.Logger
	Store  *Store // receives a snapshot after every change; created when nil
}

// Session is the playback state machine. All methods are safe for concurrent use.
type Session struct {
	eng    engine.Engine
	store  *Store
	logger *log.Logger

	mu         sync.Mutex
	state      State
	resume     State // state to return to when a seek commits
	track      *models.Track
	playlistID int64
	queue      []models.Track
	position   float64
	duration   float64

	lastReq uint64
	loadReq uint64
	seekReq uint64

	sub       events.Subscription
	pumpDone  chan struct{}
	closeOnce sync.Once
}

// New opens the session's single engine subscription and starts applying its events.
func New(eng engine.Engine, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}

	sub, err := eng.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe: %w", shared.ErrChannel, err)
	}

	s := &Session{
		eng:      eng,
		store:    opts.Store,
		logger:   shared.WithLogger(opts.Logger, "component", "session"),
		sub:      sub,
		pumpDone: make(chan struct{}),
	}
	s.store.set(s.snapshotLocked())

	go s.pump()
	s.logger.Debug("session opened", "subscription", sub.ID)
	return s, nil
}

func (s *Session) pump() {
	defer close(s.pumpDone)
	for ev := range s.sub.Events {
		s.Apply(ev)
	}
}

// Close releases the engine subscription. Only the first call unsubscribes; an unsubscribe failure is logged.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if err := s.eng.Unsubscribe(s.sub.ID); err != nil {
			s.logger.Error("unsubscribe failed", "subscription", s.sub.ID, "error", err)
			return
		}
		<-s.pumpDone
		s.logger.Debug("session closed", "subscription", s.sub.ID)
	})
}

// Store returns the store this session publishes to.
func (s *Session) Store() *Store {
	return s.store
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      s.state,
		PlaylistID: s.playlistID,
		Queue:      s.queue,
		Position:   s.position,
		Duration:   s.duration,
	}
	if s.track != nil {
		t := *s.track
		snap.Track = &t
	}
	return snap
}

// commit publishes the state and must be called with mu held.
func (s *Session) commit() {
	s.store.set(s.snapshotLocked())
}

func (s *Session) nextID() uint64 {
	s.lastReq++
	return s.lastReq
}

// SetQueue replaces the navigation list. Playback state is not touched.
func (s *Session) SetQueue(playlistID int64, tracks []models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlistID = playlistID
	s.queue = append([]models.Track(nil), tracks...)
	s.commit()
}

// LoadTrack moves to LoadedPaused from any state and asks the engine to load the track's file.
// The engine's Playing or Paused event confirms the transition.
func (s *Session) LoadTrack(ctx context.Context, track models.Track) error {
	if track.Path == "" {
		return fmt.Errorf("%w: track %d has no path", shared.ErrValidation, track.TrackID)
	}

	s.mu.Lock()
	req := s.nextID()
	s.loadReq = req
	s.state = LoadedPaused
	s.resume = LoadedPaused
	s.track = &track
	s.position = 0
	s.duration = float64(track.Duration)
	s.commit()
	s.mu.Unlock()

	s.logger.Debug("load", "req", req, "track", track.TrackID, "path", track.Path)
	return s.checkCommand("load", req, s.eng.Load(ctx, req, track.Path))
}

// Play resumes a paused track. It is a no-op while already playing.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Idle:
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	case Seeking:
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot play while seeking", shared.ErrInvalidState)
	case LoadedPlaying:
		s.mu.Unlock()
		return nil
	}
	req := s.nextID()
	s.state = LoadedPlaying
	s.commit()
	s.mu.Unlock()

	return s.checkCommand("play", req, s.eng.Play(ctx, req))
}

// Pause stops a playing track. It is a no-op while already paused.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Idle:
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	case Seeking:
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot pause while seeking", shared.ErrInvalidState)
	case LoadedPaused:
		s.mu.Unlock()
		return nil
	}
	req := s.nextID()
	s.state = LoadedPaused
	s.commit()
	s.mu.Unlock()

	return s.checkCommand("pause", req, s.eng.Pause(ctx, req))
}

// Toggle plays a paused track and pauses a playing one.
func (s *Session) Toggle(ctx context.Context) error {
	if s.Snapshot().State == LoadedPlaying {
		return s.Pause(ctx)
	}
	return s.Play(ctx)
}

// SeekBegin enters Seeking. Position updates are ignored until [Session.SeekCommit].
func (s *Session) SeekBegin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
		return shared.ErrNothingLoaded
	case Seeking:
		return nil
	}
	s.resume = s.state
	s.state = Seeking
	s.commit()
	return nil
}

// SeekCommit leaves Seeking for the state held before [Session.SeekBegin] and asks the engine to seek.
func (s *Session) SeekCommit(ctx context.Context, position float64) error {
	s.mu.Lock()
	if s.state != Seeking {
		s.mu.Unlock()
		return fmt.Errorf("%w: no seek in progress", shared.ErrInvalidState)
	}
	if position < 0 {
		position = 0
	}
	if s.duration > 0 && position > s.duration {
		position = s.duration
	}

	req := s.nextID()
	s.seekReq = req
	s.state = s.resume
	s.position = position
	s.commit()
	s.mu.Unlock()

	return s.checkCommand("seek", req, s.eng.Seek(ctx, req, position))
}

// SeekBy moves the position by delta seconds in one begin/commit pair.
func (s *Session) SeekBy(ctx context.Context, delta float64) error {
	if err := s.SeekBegin(); err != nil {
		return err
	}
	return s.SeekCommit(ctx, s.Snapshot().Position+delta)
}

// Next loads the track after the current one in the queue, wrapping at the end.
// When the current track is not in the queue nothing changes and [shared.ErrNotFound] is returned.
func (s *Session) Next(ctx context.Context) error {
	return s.navigate(ctx, "next", navigation.Next)
}

// Previous loads the track before the current one, wrapping at the start.
func (s *Session) Previous(ctx context.Context) error {
	return s.navigate(ctx, "previous", navigation.Previous)
}

func (s *Session) navigate(ctx context.Context, dir string, step func(models.Track, []models.Track) (models.Track, bool)) error {
	s.mu.Lock()
	if s.track == nil {
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	}
	target, ok := step(*s.track, s.queue)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: no %s track in queue", shared.ErrTrackNotFound, dir)
	}
	return s.LoadTrack(ctx, target)
}

// checkCommand logs an engine failure. Failures of commands that a newer command has replaced are dropped.
func (s *Session) checkCommand(op string, req uint64, err error) error {
	if err == nil {
		return nil
	}

	s.mu.Lock()
	superseded := req < s.loadReq || (op == "load" && req != s.loadReq) || (op == "seek" && req != s.seekReq)
	s.mu.Unlock()

	if superseded {
		s.logger.Debug("dropping failure of superseded command", "op", op, "req", req, "error", err)
		return nil
	}
	s.logger.Error("engine command failed", "op", op, "req", req, "error", err)
	return fmt.Errorf("%w: %s: %w", shared.ErrEngineCommand, op, err)
}

// Apply folds one engine event into the session and reports whether it changed anything.
// The pump goroutine calls it for every delivered event.
func (s *Session) Apply(ev events.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := ev.Correlation(); c != 0 && c < s.loadReq {
		s.logger.Debug("dropping stale event", "kind", ev.Kind(), "req", c, "load", s.loadReq)
		return false
	}

	switch e := ev.(type) {
	case events.Playing:
		if !s.setPlayback(LoadedPlaying) {
			return false
		}
	case events.Paused:
		if !s.setPlayback(LoadedPaused) {
			return false
		}
	case events.PositionUpdate:
		if s.state == Idle || s.state == Seeking {
			return false
		}
		s.position = e.Position
		s.duration = e.Duration
	case events.Seeked:
		if e.RequestID != 0 && e.RequestID < s.seekReq {
			s.logger.Debug("dropping stale seek", "req", e.RequestID, "seek", s.seekReq)
			return false
		}
		s.position = e.Position
	default:
		return false
	}

	s.commit()
	return true
}

// setPlayback applies an authoritative playing or paused state. While seeking it replaces the resume state instead.
func (s *Session) setPlayback(st State) bool {
	switch s.state {
	case Idle:
		return false
	case Seeking:
		s.resume = st
	default:
		s.state = st
	}
	return true
}
