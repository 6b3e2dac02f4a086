// Package ui implements the interactive sync monitor using bubbletea's Elm architecture.
//
// The TUI walks through four views:
//  1. [PlaylistListView] : Pick the source playlists to synchronize
//  2. [ConfirmView] : Confirm the run (and show dry-run mode)
//  3. [SyncView] : Follow engine progress with a spinner and a progress bar
//  4. [ResultView] : Browse per-playlist conversion rates and missing tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Engine progress flows through a buffered channel; the engine never blocks on a slow terminal.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
