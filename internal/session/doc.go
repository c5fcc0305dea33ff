// Package session owns playback state for one listener.
//
// A [Session] is a four-state machine (Idle, LoadedPaused, LoadedPlaying, Seeking) driven from two sides:
// user commands, which change state optimistically and forward a command to the engine, and engine events,
// which are authoritative and correct whatever the optimistic transition guessed.
//
// The session subscribes to the engine exactly once in [New] and releases that subscription in [Session.Close].
// Events are pumped on a dedicated goroutine. Every command carries a request id from a per-session counter;
// events answering a superseded load or seek are dropped so a late response cannot overwrite newer state.
//
// Consumers read state through a [Store], which holds the latest [Snapshot] and notifies subscribers on change.
package session
