// Package models defines the data model shared by the platform adapters, the matcher and the sync engine.
//
// The package contains two categories of types:
//
// 1. Value types describing catalog data
//   - [Track] : Song metadata with ISRC, album and artists for cross-platform matching
//   - [Playlist] : Playlist id, name and ordered tracks
//   - [Stats] : Conversion counters for one playlist
//   - [PlaylistReport] : Everything the engine learned about one synced playlist
//
// 2. Persistent entities recorded in the sync history database
//   - [SyncRun] : One invocation of the engine between two platforms
//   - [PlaylistResult] : The stats of one playlist within a run
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
