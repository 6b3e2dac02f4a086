package tasks

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// SyncResult summarizes one engine run.
//
// Likes is nil unless liked songs were synchronized. Err holds the error that aborted the run.
type SyncResult struct {
	Source      models.Platform
	Destination models.Platform
	DryRun      bool
	Reports     []models.PlaylistReport
	Likes       *models.PlaylistReport
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

// Stats sums the playlist statistics of the run, excluding likes.
func (r *SyncResult) Stats() models.Stats {
	var total models.Stats
	for _, report := range r.Reports {
		total.Success += report.Stats.Success
		total.Attempts += report.Stats.Attempts
	}
	return total
}

// Duration returns the wall time of the run.
func (r *SyncResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Observer receives the reports of an engine run.
//
// PlaylistSynced is called once per playlist, and once for liked songs. RunFinished is called once per
// run, also when the run failed. Errors are logged by the engine and never abort the run.
type Observer interface {
	PlaylistSynced(report models.PlaylistReport) error
	RunFinished(result *SyncResult) error
}

// LogObserver logs reports through a [log.Logger].
type LogObserver struct {
	logger *log.Logger
}

func NewLogObserver(logger *log.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) PlaylistSynced(report models.PlaylistReport) error {
	l := o.logger.With("playlist", report.Name)
	if report.Stats.Attempts == 0 {
		l.Info("synchronized, no new tracks to add")
	} else {
		l.Info("synchronized",
			"added", len(report.New),
			"converted", report.Stats.Success,
			"attempts", report.Stats.Attempts,
			"rate", report.Rate(),
		)
	}

	for _, t := range report.Missing {
		l.Debug("no match found", "track", t.String())
	}
	if n := len(report.NoAlbum); n > 0 {
		l.Warn("skipped tracks without album metadata", "count", n)
	}
	return nil
}

func (o *LogObserver) RunFinished(result *SyncResult) error {
	total := result.Stats()
	kv := []any{
		"from", result.Source,
		"to", result.Destination,
		"playlists", len(result.Reports),
		"converted", total.Success,
		"attempts", total.Attempts,
		"elapsed", result.Duration().Round(time.Millisecond),
	}
	if result.DryRun {
		kv = append(kv, "dry_run", true)
	}

	if result.Err != nil {
		o.logger.Error("synchronization failed", append(kv, "error", result.Err)...)
		return nil
	}
	o.logger.Info("synchronization complete", kv...)
	return nil
}
