// Package engine is the command boundary toward the audio engine.
//
// [Engine] combines the four playback commands with the event subscription contract from the events package.
// Every command carries a request id chosen by the caller; the engine tags the events a command produces with
// that id so the caller can recognise responses to commands it has since superseded.
//
// [Local] is an in-process engine that keeps the playback clock without producing audio output. It is what the
// CLI and TUI drive; tests use the mock in internal/testing.
package engine

import (
	"context"

	"github.com/desertthunder/lark/internal/events"
)

// Commander issues playback commands. Positions are in seconds.
type Commander interface {
	Load(ctx context.Context, req uint64, path string) error
	Play(ctx context.Context, req uint64) error
	Pause(ctx context.Context, req uint64) error
	Seek(ctx context.Context, req uint64, position float64) error
}

// Engine is a Commander whose events can be subscribed to.
type Engine interface {
	Commander
	events.Source
}
