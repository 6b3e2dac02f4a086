package tasks

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/matcher"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds concurrent playlist track fetches per service.
const DefaultFetchConcurrency = 4

// LikedSongs names the report emitted for liked songs.
const LikedSongs = "Liked Songs"

// SkippedPlaylists are generated by the platforms themselves and never synchronized.
var SkippedPlaylists = []string{
	// YouTube Music
	"New playlist",
	"Your Likes",
	"My Supermix",
	"Discover Mix",
	"Episodes for Later",
	// Spotify
	"Liked Songs",
	"Discover Weekly",
	"Big Room House Mix",
	"Motivation Electronic Mix",
	"High Energy Mix",
}

// Options configure an [Engine].
type Options struct {
	LikeAll          bool     // like every track added to a destination playlist
	SyncLikes        bool     // synchronize liked songs after playlists
	AllowCrossRegion bool     // allow accounts registered in different countries
	DryRun           bool     // resolve and report without mutating the destination
	FetchConcurrency int      // concurrent track fetches per service
	Only             []string // restrict the run to these source playlist names
}

// OptionsFromConfig maps the [shared.SyncConfig] section onto [Options].
func OptionsFromConfig(c shared.SyncConfig) Options {
	return Options{
		LikeAll:          c.LikeAll,
		SyncLikes:        c.SyncLikes,
		AllowCrossRegion: c.AllowCrossRegion,
		DryRun:           c.DryRun,
		FetchConcurrency: c.FetchConcurrency,
	}
}

// Engine synchronizes playlists and liked songs from a source to a destination service.
type Engine struct {
	opts      Options
	logger    *log.Logger
	resolver  *matcher.Resolver
	observers []Observer
	progress  chan<- ProgressUpdate
}

// NewEngine creates an [Engine]. A nil logger discards output.
func NewEngine(opts Options, logger *log.Logger, observers ...Observer) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = DefaultFetchConcurrency
	}
	return &Engine{
		opts:      opts,
		logger:    logger,
		resolver:  matcher.NewResolver(logger),
		observers: observers,
	}
}

// WithProgress sets the channel receiving progress updates. Sends never block.
func (e *Engine) WithProgress(progress chan<- ProgressUpdate) *Engine {
	e.progress = progress
	return e
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Destination is the mutable view of the destination library during a run.
type Destination struct {
	svc       services.Service
	playlists []models.Playlist
	likes     []models.Track
}

// NewDestination wraps a fetched destination library of svc.
func NewDestination(svc services.Service, playlists []models.Playlist, likes []models.Track) *Destination {
	return &Destination{svc: svc, playlists: playlists, likes: likes}
}

// take removes and returns the first playlist named name.
func (d *Destination) take(name string) (models.Playlist, bool) {
	i := slices.IndexFunc(d.playlists, func(p models.Playlist) bool { return p.Name == name })
	if i < 0 {
		return models.Playlist{}, false
	}
	p := d.playlists[i]
	d.playlists = slices.Delete(d.playlists, i, i+1)
	return p, true
}

// Synchronize copies every source playlist to dst and, when enabled, the liked songs.
//
// A region mismatch fails with [shared.ErrRegionMismatch] before anything is fetched. Fatal adapter
// errors abort the run and are returned together with the partial result.
func (e *Engine) Synchronize(ctx context.Context, src, dst services.Service) (*SyncResult, error) {
	if err := e.Guard(ctx, src, dst); err != nil {
		return nil, err
	}

	return e.run(src.Platform(), dst.Platform(), func(result *SyncResult) error {
		var playlists []models.Playlist
		state := &Destination{svc: dst}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			e.logger.Info("retrieving source playlists", "platform", src.Platform())
			playlists, err = e.fetch(gctx, src, FetchSource)
			return err
		})
		g.Go(func() error {
			var err error
			e.logger.Info("retrieving destination playlists", "platform", dst.Platform())
			state.playlists, err = e.fetch(gctx, dst, FetchDest)
			return err
		})
		if e.opts.LikeAll {
			g.Go(func() error {
				var err error
				sendProgress(e.progress, fetchLikesUpdate(dst.Name()))
				state.likes, err = dst.Likes(gctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("failed to fetch libraries: %w", err)
		}

		if err := e.syncPlaylists(ctx, playlists, state, result); err != nil {
			return err
		}

		if e.opts.SyncLikes {
			report, err := e.SyncLikes(ctx, src, dst)
			if err != nil {
				return err
			}
			result.Likes = &report
		}
		return nil
	})
}

// SyncSnapshot copies playlists loaded from a snapshot to dst. There is no source service, so the
// region guard does not apply.
func (e *Engine) SyncSnapshot(ctx context.Context, playlists []models.Playlist, dst services.Service) (*SyncResult, error) {
	var source models.Platform
	for _, p := range playlists {
		if len(p.Tracks) > 0 {
			source = p.Tracks[0].Platform
			break
		}
	}

	return e.run(source, dst.Platform(), func(result *SyncResult) error {
		state := &Destination{svc: dst}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			state.playlists, err = e.fetch(gctx, dst, FetchDest)
			return err
		})
		if e.opts.LikeAll {
			g.Go(func() error {
				var err error
				state.likes, err = dst.Likes(gctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("failed to fetch destination library: %w", err)
		}

		return e.syncPlaylists(ctx, playlists, state, result)
	})
}

// SynchronizeLikes copies only the liked songs from src to dst.
func (e *Engine) SynchronizeLikes(ctx context.Context, src, dst services.Service) (*SyncResult, error) {
	if err := e.Guard(ctx, src, dst); err != nil {
		return nil, err
	}

	return e.run(src.Platform(), dst.Platform(), func(result *SyncResult) error {
		report, err := e.SyncLikes(ctx, src, dst)
		if err != nil {
			return err
		}
		result.Likes = &report
		return nil
	})
}

// Guard fails with [shared.ErrRegionMismatch] when both services report a region, the regions
// differ, and cross-region synchronization is not allowed.
func (e *Engine) Guard(ctx context.Context, src, dst services.Service) error {
	if e.opts.AllowCrossRegion || !src.ReportsRegion() || !dst.ReportsRegion() {
		return nil
	}

	srcRegion, err := src.Region(ctx)
	if err != nil {
		return fmt.Errorf("failed to get %s region: %w", src.Name(), err)
	}
	dstRegion, err := dst.Region(ctx)
	if err != nil {
		return fmt.Errorf("failed to get %s region: %w", dst.Name(), err)
	}

	if srcRegion != dstRegion {
		return fmt.Errorf("%w (%s vs %s), allow cross-region sync to continue anyway",
			shared.ErrRegionMismatch, srcRegion, dstRegion)
	}
	return nil
}

// FetchLibrary lists the playlists of svc with their tracks.
//
// Track lists are fetched concurrently, bounded by Options.FetchConcurrency. Any failure fails the
// whole fetch.
func (e *Engine) FetchLibrary(ctx context.Context, svc services.Service) ([]models.Playlist, error) {
	return e.fetch(ctx, svc, FetchSource)
}

func (e *Engine) fetch(ctx context.Context, svc services.Service, phase Phase) ([]models.Playlist, error) {
	playlists, err := svc.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s playlists: %w", svc.Name(), err)
	}

	var done atomic.Int32
	total := len(playlists)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.FetchConcurrency)
	for i := range playlists {
		g.Go(func() error {
			tracks, err := svc.PlaylistTracks(gctx, playlists[i].ID)
			if err != nil {
				return fmt.Errorf("failed to fetch tracks of %q: %w", playlists[i].Name, err)
			}
			playlists[i].Tracks = tracks
			sendProgress(e.progress, fetchPlaylistsUpdate(phase, int(done.Add(1)), total, svc.Name()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return playlists, nil
}

// run wraps fn with the run bookkeeping and observer notification.
func (e *Engine) run(src, dst models.Platform, fn func(*SyncResult) error) (*SyncResult, error) {
	result := &SyncResult{
		Source:      src,
		Destination: dst,
		DryRun:      e.opts.DryRun,
		StartedAt:   time.Now(),
	}

	err := fn(result)
	result.FinishedAt = time.Now()
	result.Err = err

	for _, o := range e.observers {
		if oerr := o.RunFinished(result); oerr != nil {
			e.logger.Warn("observer failed", "error", oerr)
		}
	}
	sendProgress(e.progress, doneUpdate(result))
	return result, err
}

func (e *Engine) notify(report models.PlaylistReport) {
	sendProgress(e.progress, reportUpdate(report))
	for _, o := range e.observers {
		if err := o.PlaylistSynced(report); err != nil {
			e.logger.Warn("observer failed", "playlist", report.Name, "error", err)
		}
	}
}

// selected reports whether a source playlist takes part in the run.
func (e *Engine) selected(p models.Playlist) bool {
	if len(p.Tracks) == 0 || slices.Contains(SkippedPlaylists, p.Name) {
		return false
	}
	return len(e.opts.Only) == 0 || slices.Contains(e.opts.Only, p.Name)
}
