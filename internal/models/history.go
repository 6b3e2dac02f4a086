package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SyncRun records one invocation of the sync engine.
type SyncRun struct {
	id          string
	sequence    int
	source      Platform
	destination Platform
	status      RunStatus
	errMsg      string
	startedAt   time.Time
	finishedAt  *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewSyncRun creates a running [SyncRun] between two platforms.
func NewSyncRun(sequence int, source, destination Platform) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:    sequence,
		source:      source,
		destination: destination,
		status:      RunRunning,
		startedAt:   now,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (r *SyncRun) ID() string { return r.id }
func (r *SyncRun) Sequence() int { return r.sequence }
func (r *SyncRun) Source() Platform { return r.source }
func (r *SyncRun) Destination() Platform { return r.destination }
func (r *SyncRun) Status() RunStatus { return r.status }
func (r *SyncRun) ErrorMessage() string { return r.errMsg }
func (r *SyncRun) StartedAt() time.Time { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *SyncRun) CreatedAt() time.Time { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time { return r.updatedAt }

func (r *SyncRun) SetID(id string) { r.id = id }
func (r *SyncRun) SetSequence(seq int) { r.sequence = seq }
func (r *SyncRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *SyncRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *SyncRun) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *SyncRun) SetFinishedAt(t *time.Time) { r.finishedAt = t }
func (r *SyncRun) SetStatus(s RunStatus) { r.status = s }
func (r *SyncRun) SetErrorMessage(msg string) { r.errMsg = msg }

// Finish marks the run completed, or failed when err is non-nil.
func (r *SyncRun) Finish(err error) {
	now := time.Now()
	r.finishedAt = &now
	r.updatedAt = now
	if err != nil {
		r.status = RunFailed
		r.errMsg = err.Error()
		return
	}
	r.status = RunCompleted
}

// Validate implements [Model].
func (r *SyncRun) Validate() error {
	if r.source == "" || r.destination == "" {
		return fmt.Errorf("sync run requires source and destination platforms")
	}
	switch r.status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.status)
	}
	return nil
}

// PlaylistResult records the outcome of one playlist within a [SyncRun].
type PlaylistResult struct {
	id        string
	runID     string
	playlist  string
	stats     Stats
	added     int
	missing   int
	noAlbum   int
	createdAt time.Time
}

// NewPlaylistResult builds a [PlaylistResult] from a report.
func NewPlaylistResult(runID string, report PlaylistReport) *PlaylistResult {
	return &PlaylistResult{
		runID:     runID,
		playlist:  report.Name,
		stats:     report.Stats,
		added:     len(report.New),
		missing:   len(report.Missing),
		noAlbum:   len(report.NoAlbum),
		createdAt: time.Now(),
	}
}

// RestorePlaylistResult rebuilds a [PlaylistResult] from stored columns.
func RestorePlaylistResult(id, runID, playlist string, stats Stats, added, missing, noAlbum int, createdAt time.Time) *PlaylistResult {
	return &PlaylistResult{
		id:        id,
		runID:     runID,
		playlist:  playlist,
		stats:     stats,
		added:     added,
		missing:   missing,
		noAlbum:   noAlbum,
		createdAt: createdAt,
	}
}

func (p *PlaylistResult) ID() string { return p.id }
func (p *PlaylistResult) RunID() string { return p.runID }
func (p *PlaylistResult) Playlist() string { return p.playlist }
func (p *PlaylistResult) Stats() Stats { return p.stats }
func (p *PlaylistResult) Added() int { return p.added }
func (p *PlaylistResult) Missing() int { return p.missing }
func (p *PlaylistResult) NoAlbum() int { return p.noAlbum }
func (p *PlaylistResult) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt equals CreatedAt; results are written once.
func (p *PlaylistResult) UpdatedAt() time.Time { return p.createdAt }

func (p *PlaylistResult) SetID(id string) { p.id = id }

// Validate implements [Model].
func (p *PlaylistResult) Validate() error {
	if p.runID == "" {
		return fmt.Errorf("playlist result requires a run id")
	}
	if p.playlist == "" {
		return fmt.Errorf("playlist result requires a playlist name")
	}
	if p.stats.Attempts < 0 || p.stats.Success < 0 {
		return fmt.Errorf("negative stats for %q: %+v", p.playlist, p.stats)
	}
	return nil
}
