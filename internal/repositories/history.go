package repositories

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/tasks"
)

// HistoryRecorder is a [tasks.Observer] persisting a run and its playlist results.
//
// The run row is created on the first report so a run that fails before syncing anything still gets
// one from RunFinished.
type HistoryRecorder struct {
	runs    *SyncRunRepository
	results *PlaylistResultRepository
	source  models.Platform
	dest    models.Platform

	mu  sync.Mutex
	run *models.SyncRun
}

func NewHistoryRecorder(db *sql.DB, source, destination models.Platform) *HistoryRecorder {
	return &HistoryRecorder{
		runs:    NewSyncRunRepository(db),
		results: NewPlaylistResultRepository(db),
		source:  source,
		dest:    destination,
	}
}

// Run returns the recorded run, or nil before the first report.
func (h *HistoryRecorder) Run() *models.SyncRun {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.run
}

func (h *HistoryRecorder) PlaylistSynced(report models.PlaylistReport) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureRun(); err != nil {
		return err
	}
	if err := h.results.Create(models.NewPlaylistResult(h.run.ID(), report)); err != nil {
		return fmt.Errorf("failed to record %q: %w", report.Name, err)
	}
	return nil
}

func (h *HistoryRecorder) RunFinished(result *tasks.SyncResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureRun(); err != nil {
		return err
	}
	if !result.StartedAt.IsZero() {
		h.run.SetStartedAt(result.StartedAt)
	}
	h.run.Finish(result.Err)
	if !result.FinishedAt.IsZero() {
		finished := result.FinishedAt
		h.run.SetFinishedAt(&finished)
	}
	return h.runs.Update(h.run)
}

func (h *HistoryRecorder) ensureRun() error {
	if h.run != nil {
		return nil
	}
	run := models.NewSyncRun(0, h.source, h.dest)
	if err := h.runs.Create(run); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	h.run = run
	return nil
}
