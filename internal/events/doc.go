// Package events defines the playback events emitted by an engine and the channel that delivers them.
//
// [Event] is a closed union of [Playing], [Paused], [PositionUpdate] and [Seeked]; consumers match it with a
// type switch. Each event carries the request id of the engine command that produced it, or 0 when the engine
// emitted it on its own (periodic position updates, end of track).
//
// A [Hub] fans events out to subscriptions. Delivery within one subscription is FIFO and never drops: every
// subscription owns an unbounded mailbox drained by its own goroutine, so a slow reader cannot stall the publisher.
package events
