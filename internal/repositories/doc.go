// Package repositories implements SQLite persistence for the music library.
//
// Each repository wraps one table and runs parameterized statements against a [Querier],
// which is satisfied by both [sql.DB] and [sql.Tx] so the same code runs inside or outside a transaction.
//
// Key Implementations:
//   - [ArtistRepository] : get-or-create by name
//   - [AlbumRepository] : get-or-create by (name, artist)
//   - [TrackRepository] : imported files
//   - [PlaylistRepository] : user playlists and the "All Tracks" sentinel
//   - [MembershipRepository] : TrackPlaylist rows, listed in insertion order
//
// [Library] composes them into the operations the player calls. Multi-statement operations
// (playlist deletion, track import) run in a single transaction through [WithTx].
package repositories
