package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

const playlistResultColumns = `id, run_id, playlist, success, attempts, added, missing, no_album, created_at`

// PlaylistResultRepository implements models.Repository[*models.PlaylistResult].
//
// Results are written once; Update only rewrites the counters.
type PlaylistResultRepository struct {
	db *sql.DB
}

func NewPlaylistResultRepository(db *sql.DB) *PlaylistResultRepository {
	return &PlaylistResultRepository{db: db}
}

func (r *PlaylistResultRepository) Create(result *models.PlaylistResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	result.SetID(shared.GenerateID())

	stats := result.Stats()
	query := `INSERT INTO playlist_results (` + playlistResultColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		result.ID(),
		result.RunID(),
		result.Playlist(),
		stats.Success,
		stats.Attempts,
		result.Added(),
		result.Missing(),
		result.NoAlbum(),
		result.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist result: %w", err)
	}
	return nil
}

func (r *PlaylistResultRepository) Get(id string) (*models.PlaylistResult, error) {
	query := `SELECT ` + playlistResultColumns + ` FROM playlist_results WHERE id = ?`
	result, err := scanPlaylistResult(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playlist result not found: %s", id)
	}
	return result, err
}

func (r *PlaylistResultRepository) Update(result *models.PlaylistResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stats := result.Stats()
	query := `
		UPDATE playlist_results
		SET success = ?, attempts = ?, added = ?, missing = ?, no_album = ?
		WHERE id = ?
	`
	res, err := r.db.Exec(query, stats.Success, stats.Attempts, result.Added(), result.Missing(), result.NoAlbum(), result.ID())
	if err != nil {
		return fmt.Errorf("failed to update playlist result: %w", err)
	}
	return checkAffected(res, "playlist result", result.ID())
}

func (r *PlaylistResultRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM playlist_results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist result: %w", err)
	}
	return checkAffected(res, "playlist result", id)
}

// List retrieves results in insertion order.
//
// Supported criteria: "run_id" and "playlist" (strings).
func (r *PlaylistResultRepository) List(criteria map[string]any) ([]*models.PlaylistResult, error) {
	query := `SELECT ` + playlistResultColumns + ` FROM playlist_results WHERE 1 = 1`
	args := []any{}

	for _, column := range []string{"run_id", "playlist"} {
		if v, ok := criteria[column].(string); ok && v != "" {
			query += " AND " + column + " = ?"
			args = append(args, v)
		}
	}
	query += " ORDER BY rowid"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist results: %w", err)
	}
	defer rows.Close()

	var results []*models.PlaylistResult
	for rows.Next() {
		result, err := scanPlaylistResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

// ListByRun is shorthand for List with a run_id criterion.
func (r *PlaylistResultRepository) ListByRun(runID string) ([]*models.PlaylistResult, error) {
	return r.List(map[string]any{"run_id": runID})
}

func scanPlaylistResult(s scanner) (*models.PlaylistResult, error) {
	var (
		id, runID, playlist     string
		stats                   models.Stats
		added, missing, noAlbum int
		createdAt               time.Time
	)

	err := s.Scan(&id, &runID, &playlist, &stats.Success, &stats.Attempts, &added, &missing, &noAlbum, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist result: %w", err)
	}
	return models.RestorePlaylistResult(id, runID, playlist, stats, added, missing, noAlbum, createdAt), nil
}
