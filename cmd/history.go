package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const historyTimeFormat = "2006-01-02 15:04"

// History lists past runs, or the playlist results of the run named by --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs := repositories.NewSyncRunRepository(db)
	results := repositories.NewPlaylistResultRepository(db)

	if ref := cmd.String("run"); ref != "" {
		run, err := findRun(runs, ref)
		if err != nil {
			return err
		}
		playlists, err := results.ListByRun(run.ID())
		if err != nil {
			return err
		}
		return r.writeRun(run, playlists)
	}

	list, err := runs.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		r.writePlain("No sync runs recorded yet.\n")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, run := range list {
		playlists, err := results.ListByRun(run.ID())
		if err != nil {
			return err
		}
		var total models.Stats
		for _, p := range playlists {
			total.Success += p.Stats().Success
			total.Attempts += p.Stats().Attempts
		}
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence()),
			run.StartedAt().Local().Format(historyTimeFormat),
			fmt.Sprintf("%s → %s", run.Source().Label(), run.Destination().Label()),
			string(run.Status()),
			strconv.Itoa(len(playlists)),
			fmt.Sprintf("%d/%d", total.Success, total.Attempts),
			run.ErrorMessage(),
		})
	}

	return r.writePlain("%s\n", renderTable(
		[]string{"#", "Started", "Route", "Status", "Playlists", "Converted", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

// findRun resolves ref as a sequence number first, then as a run id.
func findRun(runs *repositories.SyncRunRepository, ref string) (*models.SyncRun, error) {
	seq, err := strconv.Atoi(ref)
	if err != nil {
		return runs.Get(ref)
	}

	list, err := runs.List(map[string]any{})
	if err != nil {
		return nil, err
	}
	for _, run := range list {
		if run.Sequence() == seq {
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: no run with sequence %d", shared.ErrInvalidArgument, seq)
}

func (r *Runner) writeRun(run *models.SyncRun, playlists []*models.PlaylistResult) error {
	r.writePlain("Run #%d %s → %s (%s)\n", run.Sequence(), run.Source().Label(), run.Destination().Label(), run.Status())
	if finished := run.FinishedAt(); finished != nil {
		r.writePlain("Started %s, took %s\n",
			run.StartedAt().Local().Format(historyTimeFormat),
			finished.Sub(run.StartedAt()).Round(time.Millisecond))
	}
	if msg := run.ErrorMessage(); msg != "" {
		r.writePlain("Error: %s\n", msg)
	}

	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{
			p.Playlist(),
			strconv.Itoa(p.Added()),
			fmt.Sprintf("%d/%d", p.Stats().Success, p.Stats().Attempts),
			formatRate(p.Stats().Rate()),
			strconv.Itoa(p.Missing()),
			strconv.Itoa(p.NoAlbum()),
		})
	}
	return r.writePlain("%s\n", renderTable(reportHeaders, rows, reportAligns))
}
