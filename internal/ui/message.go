package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLibraryFetched MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

type libraryData struct {
	playlists []models.Playlist
	err       error
}

type syncData struct {
	result *tasks.SyncResult
	err    error
}

// libraryFetchedMsg is the constructor for [MsgLibraryFetched]
func libraryFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgLibraryFetched, data: libraryData{playlists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result *tasks.SyncResult, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncData{result, err}}
}
