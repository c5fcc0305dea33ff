// Package tasks runs long library operations with progress reporting.
//
// # Import
//
// [ImportQueue] imports audio files one at a time in the order they were queued. Each file is awaited before the
// next starts and a failing file is recorded in its [ImportOutcome] without stopping the batch. The queue can be
// throttled with a token bucket so a large directory does not monopolise the database.
//
// # Export
//
// [ExportPlaylists] writes many playlists concurrently through a bounded worker pool, then summarises the run in a
// JSON manifest. Playlist reads are paced by the same kind of limiter.
//
// # Progress Reporting
//
// Both operations accept an optional channel of [ProgressUpdate]. Updates are sent with select/default so a slow or
// absent reader never blocks the work.
package tasks
