// Package repositories implements SQLite persistence for the sync history.
//
// Key Implementations:
//   - [SyncRunRepository] : one row per engine run, with status and error
//   - [PlaylistResultRepository] : the statistics of every playlist of a run
//   - [HistoryRecorder] : a tasks.Observer writing both while a run progresses
//
// Sequence numbers provide stable, human-readable ordering (e.g. run #42) independent of UUIDs and timestamps.
// The [NextSequence] function allocates them from a dedicated sequence table.
package repositories
