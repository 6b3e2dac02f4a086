package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync copies every playlist, and the liked songs when enabled, from --from to --to.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	src, dst, err := r.connectPair(ctx, cmd)
	if err != nil {
		return err
	}

	opts := r.engineOptions(cmd)
	if cmd.IsSet("likes") {
		opts.SyncLikes = cmd.Bool("likes")
	}
	opts.Only = cmd.StringSlice("only")

	return r.execute(cmd, opts, src.Platform(), dst.Platform(), func(e *tasks.Engine) (*tasks.SyncResult, error) {
		return e.Synchronize(ctx, src, dst)
	}, src, dst)
}

// Likes copies only the liked songs from --from to --to.
func (r *Runner) Likes(ctx context.Context, cmd *cli.Command) error {
	src, dst, err := r.connectPair(ctx, cmd)
	if err != nil {
		return err
	}

	return r.execute(cmd, r.engineOptions(cmd), src.Platform(), dst.Platform(), func(e *tasks.Engine) (*tasks.SyncResult, error) {
		return e.SynchronizeLikes(ctx, src, dst)
	}, src, dst)
}

// Export writes a snapshot of the --from library to --output, or stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	p, err := parsePlatform(cmd.String("from"))
	if err != nil {
		return err
	}
	svc, err := r.connect(ctx, p)
	if err != nil {
		return err
	}
	defer r.persistTokens(svc)

	engine := tasks.NewEngine(tasks.OptionsFromConfig(r.config.Sync), r.logger)
	playlists, err := engine.FetchLibrary(ctx, svc)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	if err := formatter.SaveSnapshot(output, playlists); err != nil {
		return err
	}

	r.logger.Info("snapshot saved", "path", output, "playlists", len(playlists))
	r.writePlain("✓ Exported %d playlists to %s\n", len(playlists), output)
	return nil
}

// Import synchronizes the playlists of the --input snapshot to --to.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	p, err := parsePlatform(cmd.String("to"))
	if err != nil {
		return err
	}

	playlists, err := formatter.LoadSnapshot(cmd.String("input"))
	if err != nil {
		return err
	}
	r.logger.Info("snapshot loaded", "path", cmd.String("input"), "playlists", len(playlists))

	dst, err := r.connect(ctx, p)
	if err != nil {
		return err
	}

	return r.execute(cmd, r.engineOptions(cmd), snapshotSource(playlists), p, func(e *tasks.Engine) (*tasks.SyncResult, error) {
		return e.SyncSnapshot(ctx, playlists, dst)
	}, dst)
}

// execute runs fn on an engine wired with the configured observers, then prints and writes the
// reports of the result. Tokens of svcs are persisted afterwards, also when the run failed.
func (r *Runner) execute(
	cmd *cli.Command, opts tasks.Options, src, dst models.Platform,
	fn func(*tasks.Engine) (*tasks.SyncResult, error), svcs ...services.Service,
) error {
	defer r.persistTokens(svcs...)

	observers, closeFn := r.observers(src, dst)
	defer closeFn()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progress)
	}()

	engine := tasks.NewEngine(opts, r.logger, observers...).WithProgress(progress)
	if opts.DryRun {
		r.logger.Warn("dry run, the destination library will not be modified")
	}

	result, err := fn(engine)
	close(progress)
	<-done
	if result == nil {
		return err
	}

	r.writePlain("%s\n", summaryTable(result))
	total := result.Stats()
	r.writePlain("%d playlists, %d/%d tracks converted (%s) in %s\n",
		len(result.Reports), total.Success, total.Attempts, formatRate(total.Rate()),
		result.Duration().Round(time.Millisecond))

	if dir := cmd.String("report-dir"); dir != "" {
		files, werr := formatter.WriteReports(result, dir)
		if werr != nil {
			r.logger.Error("failed to write reports", "dir", dir, "error", werr)
		} else {
			r.logger.Info("reports written", "dir", dir, "files", len(files))
		}
	}
	return err
}

// printProgress logs playlist and search steps until progress is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	for u := range progress {
		switch u.Phase {
		case tasks.SyncPlaylist, tasks.SyncLikes:
			r.logger.Info(u.Message, "step", u.Step, "total", u.Total)
		case tasks.Done:
		default:
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}
}

// observers returns the observers of a run: logging, debug dumps when enabled, and history when
// the database opens. The returned func releases the database.
func (r *Runner) observers(src, dst models.Platform) ([]tasks.Observer, func()) {
	observers := []tasks.Observer{tasks.NewLogObserver(r.logger)}
	closeFn := func() {}

	if r.config.Debug.Enabled {
		debug, err := formatter.NewDebugWriter(r.config.Debug.OutputDir)
		if err != nil {
			r.logger.Warn("debug output disabled", "error", err)
		} else {
			observers = append(observers, debug)
		}
	}

	db, err := r.openDB()
	if err != nil {
		r.logger.Warn("history disabled, run 'plsync setup' to create the database", "error", err)
		return observers, closeFn
	}
	observers = append(observers, repositories.NewHistoryRecorder(db, src, dst))
	closeFn = func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
	return observers, closeFn
}

// engineOptions starts from the [sync] config section and applies the flags the user set.
func (r *Runner) engineOptions(cmd *cli.Command) tasks.Options {
	opts := tasks.OptionsFromConfig(r.config.Sync)
	if cmd.IsSet("like-all") {
		opts.LikeAll = cmd.Bool("like-all")
	}
	if cmd.IsSet("allow-cross-region") {
		opts.AllowCrossRegion = cmd.Bool("allow-cross-region")
	}
	if cmd.IsSet("dry-run") {
		opts.DryRun = cmd.Bool("dry-run")
	}
	return opts
}

// connectPair connects the --from and --to services.
func (r *Runner) connectPair(ctx context.Context, cmd *cli.Command) (src, dst services.Service, err error) {
	from, err := parsePlatform(cmd.String("from"))
	if err != nil {
		return nil, nil, err
	}
	to, err := parsePlatform(cmd.String("to"))
	if err != nil {
		return nil, nil, err
	}
	if from == to {
		return nil, nil, fmt.Errorf("%w: source and destination are both %s", shared.ErrInvalidArgument, from.Label())
	}

	if src, err = r.connect(ctx, from); err != nil {
		return nil, nil, err
	}
	if dst, err = r.connect(ctx, to); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func parsePlatform(s string) (models.Platform, error) {
	p, err := models.ParsePlatform(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return p, nil
}

// snapshotSource returns the platform of the first track in playlists.
func snapshotSource(playlists []models.Playlist) models.Platform {
	for _, p := range playlists {
		if len(p.Tracks) > 0 {
			return p.Tracks[0].Platform
		}
	}
	return ""
}
