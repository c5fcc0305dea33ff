package main

import (
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/lark/internal/events"
)

// eventTrace copies every event of an engine subscription to w as JSON lines.
type eventTrace struct {
	src  events.Source
	sub  events.Subscription
	w    io.WriteCloser
	done chan struct{}
}

// startTrace opens path and starts writing src's events to it.
func (r *Runner) startTrace(src events.Source, path string) (*eventTrace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	sub, err := src.Subscribe()
	if err != nil {
		f.Close()
		return nil, err
	}

	t := &eventTrace{src: src, sub: sub, w: f, done: make(chan struct{})}
	go t.run(r)
	return t, nil
}

func (t *eventTrace) run(r *Runner) {
	defer close(t.done)
	for e := range t.sub.Events {
		data, err := events.Marshal(e)
		if err != nil {
			r.logger.Warn("failed to encode event", "kind", e.Kind(), "error", err)
			continue
		}
		if _, err := t.w.Write(append(data, '\n')); err != nil {
			r.logger.Warn("failed to write trace", "error", err)
			return
		}
	}
}

// Stop unsubscribes, waits for the writer to exit and closes the file. Events the hub had not
// delivered yet are dropped. It is safe to call after the engine has closed the subscription itself.
func (t *eventTrace) Stop() error {
	_ = t.src.Unsubscribe(t.sub.ID)
	<-t.done
	return t.w.Close()
}
