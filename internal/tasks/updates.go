package tasks

import (
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	FetchLikes
	SyncPlaylist
	SearchTracks
	AddTracks
	SyncLikes
	Report
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case FetchLikes:
		return "fetch_likes"
	case SyncPlaylist:
		return "sync_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case SyncLikes:
		return "sync_likes"
	case Report:
		return "report"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPlaylistsUpdate(phase Phase, step, total int, service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetched %d/%d playlists from %s", step, total, service),
	}
}

func fetchLikesUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLikes,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching liked songs from %s...", service),
	}
}

func syncPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Synchronizing %q...", step, total, name),
	}
}

func searchTrackUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, tr.String()),
		Data:    tr,
	}
}

func addTracksUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks to %q", count, name),
	}
}

func syncLikesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncLikes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving liked songs...", step, total),
	}
}

func reportUpdate(report models.PlaylistReport) ProgressUpdate {
	return ProgressUpdate{
		Phase: Report,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("%s: %d/%d (%.2f%%)",
			report.Name, report.Stats.Success, report.Stats.Attempts, report.Rate()*100),
		Data: report,
	}
}

func doneUpdate(result *SyncResult) ProgressUpdate {
	total := result.Stats()
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Synchronized %d playlists, %d/%d tracks", len(result.Reports), total.Success, total.Attempts),
		Data:    result,
	}
}
