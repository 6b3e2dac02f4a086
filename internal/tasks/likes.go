package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/plsync/internal/matcher"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// likeChunk bounds the number of tracks liked per call.
const likeChunk = services.BatchSize

// SyncLikes likes on dst every source liked song not liked there yet.
//
// Liked songs without album metadata are recorded and skipped, as in playlists. A resolved track
// that is already liked, or already queued, only reverts its attempt. Tracks of a rejected batch
// count as missing. The report is named [LikedSongs] and sent to the observers.
func (e *Engine) SyncLikes(ctx context.Context, src, dst services.Service) (models.PlaylistReport, error) {
	report := models.PlaylistReport{Name: LikedSongs}

	var srcLikes, dstLikes []models.Track
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e.logger.Info("retrieving source likes", "platform", src.Platform())
		sendProgress(e.progress, fetchLikesUpdate(src.Name()))
		srcLikes, err = src.Likes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		e.logger.Info("retrieving destination likes", "platform", dst.Platform())
		dstLikes, err = dst.Likes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("failed to fetch likes: %w", err)
	}

	e.logger.Info("searching for missing likes on destination platform", "count", len(srcLikes))

	var queued []models.Track
	origin := make(map[string]models.Track)
	for i, t := range srcLikes {
		sendProgress(e.progress, syncLikesUpdate(i+1, len(srcLikes)))

		if matcher.Contains(dstLikes, t) {
			continue
		}
		if !t.HasAlbum() {
			e.logger.Warn("no album metadata for liked song, skipping", "track", t.String())
			report.NoAlbum = append(report.NoAlbum, t)
			continue
		}

		report.Stats.Attempts++
		match, err := e.resolver.Resolve(ctx, dst, t)
		if err != nil {
			return report, err
		}
		if match == nil {
			e.logger.Debug("no match found", "track", t.String())
			report.Missing = append(report.Missing, t)
			continue
		}
		if matcher.Contains(dstLikes, *match) || matcher.Contains(queued, *match) {
			e.logger.Debug("discrepancy, track already liked", "track", match.String())
			report.Stats.Attempts--
			continue
		}

		queued = append(queued, *match)
		origin[match.ID] = t
		report.Stats.Success++
	}
	report.New = queued

	if len(queued) > 0 && !e.opts.DryRun {
		var added []models.Track
		for batch := range slices.Chunk(queued, likeChunk) {
			if err := dst.AddLikes(ctx, batch); err != nil {
				if shared.IsFatal(err) {
					return report, fmt.Errorf("failed to add likes: %w", err)
				}
				e.logger.Warn("failed to add likes, continuing", "count", len(batch), "error", err)
				report.Stats.Success -= len(batch)
				for _, t := range batch {
					report.Missing = append(report.Missing, origin[t.ID])
				}
				continue
			}
			added = append(added, batch...)
		}
		report.New = added
	}

	e.notify(report)
	return report, nil
}
