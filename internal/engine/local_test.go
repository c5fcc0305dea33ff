package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/lark/internal/events"
	"github.com/desertthunder/lark/internal/shared"
)

func newTestEngine(t *testing.T, d time.Duration, autoplay bool) *Local {
	t.Helper()
	e := NewLocal(Options{
		TickInterval: 5 * time.Millisecond,
		Autoplay:     autoplay,
		Probe: func(path string) (time.Duration, error) {
			if path == "missing.mp3" {
				return 0, errors.New("no such file")
			}
			return d, nil
		},
		Logger: shared.NewLogger(io.Discard),
	})
	t.Cleanup(e.Terminate)
	return e
}

func subscribe(t *testing.T, e *Local) events.Subscription {
	t.Helper()
	sub, err := e.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	return sub
}

// waitFor reads events until match returns true or the deadline passes.
func waitFor(t *testing.T, sub events.Subscription, match func(events.Event) bool) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				t.Fatal("subscription closed while waiting")
			}
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func TestLocalLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("autoplay emits playing then position", func(t *testing.T) {
		e := newTestEngine(t, 10*time.Second, true)
		sub := subscribe(t, e)

		if err := e.Load(ctx, 1, "a.mp3"); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		first := waitFor(t, sub, func(events.Event) bool { return true })
		if p, ok := first.(events.Playing); !ok || p.RequestID != 1 {
			t.Fatalf("first event = %#v, want Playing{1}", first)
		}

		ev := waitFor(t, sub, func(ev events.Event) bool { return ev.Kind() == events.KindPositionUpdate })
		pu := ev.(events.PositionUpdate)
		if pu.Duration != 10 || pu.RequestID != 1 {
			t.Errorf("position update = %#v, want duration 10 for request 1", pu)
		}
	})

	t.Run("without autoplay the track is paused", func(t *testing.T) {
		e := newTestEngine(t, 10*time.Second, false)
		sub := subscribe(t, e)

		if err := e.Load(ctx, 4, "a.mp3"); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		first := waitFor(t, sub, func(events.Event) bool { return true })
		if p, ok := first.(events.Paused); !ok || p.RequestID != 4 {
			t.Fatalf("first event = %#v, want Paused{4}", first)
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		e := newTestEngine(t, time.Second, true)
		err := e.Load(ctx, 1, "missing.mp3")
		if !errors.Is(err, shared.ErrEngineCommand) {
			t.Fatalf("Load() error = %v, want ErrEngineCommand", err)
		}
	})
}

func TestLocalCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("commands before load fail", func(t *testing.T) {
		e := newTestEngine(t, time.Second, true)
		if err := e.Play(ctx, 1); !errors.Is(err, shared.ErrEngineCommand) {
			t.Errorf("Play() error = %v, want ErrEngineCommand", err)
		}
		if err := e.Pause(ctx, 2); !errors.Is(err, shared.ErrEngineCommand) {
			t.Errorf("Pause() error = %v, want ErrEngineCommand", err)
		}
		if err := e.Seek(ctx, 3, 1); !errors.Is(err, shared.ErrEngineCommand) {
			t.Errorf("Seek() error = %v, want ErrEngineCommand", err)
		}
	})

	t.Run("pause and play carry their request ids", func(t *testing.T) {
		e := newTestEngine(t, 10*time.Second, true)
		sub := subscribe(t, e)

		if err := e.Load(ctx, 1, "a.mp3"); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if err := e.Pause(ctx, 2); err != nil {
			t.Fatalf("Pause() failed: %v", err)
		}
		ev := waitFor(t, sub, func(ev events.Event) bool { return ev.Kind() == events.KindPaused })
		if ev.Correlation() != 2 {
			t.Errorf("Paused request = %d, want 2", ev.Correlation())
		}

		if err := e.Play(ctx, 3); err != nil {
			t.Fatalf("Play() failed: %v", err)
		}
		ev = waitFor(t, sub, func(ev events.Event) bool { return ev.Kind() == events.KindPlaying && ev.Correlation() == 3 })
		if ev == nil {
			t.Fatal("no Playing event for request 3")
		}
	})

	t.Run("seek clamps to duration", func(t *testing.T) {
		e := newTestEngine(t, 10*time.Second, false)
		sub := subscribe(t, e)

		if err := e.Load(ctx, 1, "a.mp3"); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		tests := []struct {
			name string
			req  uint64
			pos  float64
			want float64
		}{
			{name: "inside", req: 2, pos: 4, want: 4},
			{name: "past end", req: 3, pos: 99, want: 10},
			{name: "negative", req: 4, pos: -1, want: 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := e.Seek(ctx, tt.req, tt.pos); err != nil {
					t.Fatalf("Seek() failed: %v", err)
				}
				ev := waitFor(t, sub, func(ev events.Event) bool { return ev.Kind() == events.KindSeeked })
				s := ev.(events.Seeked)
				if s.RequestID != tt.req || s.Position != tt.want {
					t.Errorf("Seeked = %#v, want request %d at %v", s, tt.req, tt.want)
				}
			})
		}
	})

	t.Run("end of track pauses", func(t *testing.T) {
		e := newTestEngine(t, 30*time.Millisecond, true)
		sub := subscribe(t, e)

		if err := e.Load(ctx, 7, "short.mp3"); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		var last events.PositionUpdate
		waitFor(t, sub, func(ev events.Event) bool {
			if pu, ok := ev.(events.PositionUpdate); ok {
				last = pu
			}
			return ev.Kind() == events.KindPaused
		})
		if last.Position != last.Duration {
			t.Errorf("final position = %v, want %v", last.Position, last.Duration)
		}
	})
}

func TestLocalTerminate(t *testing.T) {
	e := newTestEngine(t, time.Second, true)
	sub := subscribe(t, e)

	e.Terminate()
	e.Terminate()

	if _, ok := <-sub.Events; ok {
		t.Error("expected subscription to be closed")
	}
	if err := e.Load(context.Background(), 1, "a.mp3"); !errors.Is(err, shared.ErrEngineCommand) {
		t.Errorf("Load() after Terminate error = %v, want ErrEngineCommand", err)
	}
	if _, err := e.Subscribe(); !errors.Is(err, shared.ErrChannel) {
		t.Errorf("Subscribe() after Terminate error = %v, want ErrChannel", err)
	}
}

func TestLocalContextCancel(t *testing.T) {
	e := newTestEngine(t, time.Second, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either the command lands first or the context wins; both are acceptable, but never a hang
	err := e.Load(ctx, 1, "a.mp3")
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want nil or context.Canceled", err)
	}
}
