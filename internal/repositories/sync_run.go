package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

const syncRunColumns = `id, sequence, source, destination, status, error, started_at, finished_at, created_at, updated_at`

// SyncRunRepository implements models.Repository[*models.SyncRun].
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a run with a generated ID, allocating a sequence number when the run has none
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if run.Sequence() == 0 {
		sequence, err := NextSequence(r.db, "sync_runs")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		run.SetSequence(sequence)
	}
	run.SetID(shared.GenerateID())

	query := `INSERT INTO sync_runs (` + syncRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.Source(),
		run.Destination(),
		run.Status(),
		run.ErrorMessage(),
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`
	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	return run, err
}

// Update writes the status, error and timestamps of a run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET status = ?, error = ?, started_at = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		run.Status(),
		run.ErrorMessage(),
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	return checkAffected(result, "sync run", run.ID())
}

// Delete removes a run together with its playlist results
func (r *SyncRunRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM playlist_results WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist results: %w", err)
	}
	result, err := r.db.Exec(`DELETE FROM sync_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}
	return checkAffected(result, "sync run", id)
}

// List retrieves runs, newest first.
//
// Supported criteria: "status", "source", "destination" (strings) and "limit" (int).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE 1 = 1`
	args := []any{}

	for _, column := range []string{"status", "source", "destination"} {
		if v, ok := criteria[column].(string); ok && v != "" {
			query += " AND " + column + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanSyncRun(s scanner) (*models.SyncRun, error) {
	var (
		id          string
		sequence    int
		source      string
		destination string
		status      string
		errMsg      string
		startedAt   time.Time
		finishedAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := s.Scan(&id, &sequence, &source, &destination, &status, &errMsg, &startedAt, &finishedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(sequence, models.Platform(source), models.Platform(destination))
	run.SetID(id)
	run.SetStatus(models.RunStatus(status))
	run.SetErrorMessage(errMsg)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	return run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
