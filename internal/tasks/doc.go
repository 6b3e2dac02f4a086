// Package tasks synchronizes playlists and liked songs between streaming services with real-time progress reporting.
//
// # Runs
//
// [Engine] drives one run through GUARD → FETCH → PER_PLAYLIST(MATCH → COMMIT → REPORT)* → LIKES:
//
//  1. [Engine.Guard] : refuses accounts registered in different countries unless allowed
//  2. [Engine.FetchLibrary] : playlists with tracks, fetched concurrently with errgroup
//  3. [Engine.SyncPlaylist] : dedupe, find or create the destination playlist, resolve missing
//     tracks through the matcher, add them in batches
//  4. [Engine.SyncLikes] : the same diff for the flat liked songs set
//
// [Engine.Synchronize] runs everything, [Engine.SyncSnapshot] starts from playlists read out of a
// snapshot file and [Engine.SynchronizeLikes] only handles liked songs.
//
// Failures of a single track or playlist are logged and skipped. Errors classified fatal by
// shared.IsFatal abort the run; mutations already committed stay in place, and a later run picks up
// where the aborted one stopped.
//
// # Reporting
//
// Every playlist yields a models.PlaylistReport handed to each [Observer], and every run ends with
// [Observer.RunFinished]. The engine never writes files itself.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
