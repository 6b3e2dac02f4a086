package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/plsync/internal/matcher"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
)

// syncPlaylists runs [Engine.SyncPlaylist] for every selected playlist, in order.
//
// Non-fatal playlist failures are logged and the next playlist is processed.
func (e *Engine) syncPlaylists(ctx context.Context, playlists []models.Playlist, dst *Destination, result *SyncResult) error {
	selected := slices.DeleteFunc(slices.Clone(playlists), func(p models.Playlist) bool { return !e.selected(p) })

	for i, p := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		sendProgress(e.progress, syncPlaylistUpdate(i+1, len(selected), p.Name))

		report, err := e.SyncPlaylist(ctx, p, dst)
		if err != nil {
			if shared.IsFatal(err) {
				return fmt.Errorf("failed to synchronize %q: %w", p.Name, err)
			}
			e.logger.Warn("playlist failed, continuing", "playlist", p.Name, "error", err)
			if report.DestinationID == "" && !report.Created {
				continue
			}
		}

		result.Reports = append(result.Reports, report)
		e.notify(report)
	}
	return nil
}

// SyncPlaylist copies the tracks of source missing from its namesake on the destination.
//
// The destination playlist is taken from the fetched destination library or created. Tracks
// already present are skipped, tracks without album metadata are recorded and skipped, every
// other track is resolved with the [matcher.Resolver]. Resolved tracks that turn out to be present
// already, or that collide with another resolved track, are dropped and uncounted. Tracks of a
// batch the destination rejects count as missing and are left out of New.
func (e *Engine) SyncPlaylist(ctx context.Context, source models.Playlist, dst *Destination) (models.PlaylistReport, error) {
	logger := e.logger.With("playlist", source.Name)
	report := models.PlaylistReport{Name: source.Name, SourceID: source.ID}

	if removed := source.Dedupe(); removed > 0 {
		logger.Warn("duplicates found in source playlist, they will be skipped", "count", removed)
		report.Duplicates = removed
	}

	target, found := dst.take(source.Name)
	if !found {
		if e.opts.DryRun {
			target = models.Playlist{Name: source.Name}
		} else {
			created, err := dst.svc.CreatePlaylist(ctx, source.Name, false)
			if err != nil {
				return report, fmt.Errorf("failed to create playlist: %w", err)
			}
			target = *created
		}
		report.Created = true
	}
	report.DestinationID = target.ID

	logger.Info("synchronizing playlist")

	var resolved []models.Track
	origin := make(map[string]models.Track)
	for i, t := range source.Tracks {
		sendProgress(e.progress, searchTrackUpdate(i+1, len(source.Tracks), t))

		if matcher.Contains(target.Tracks, t) {
			continue
		}
		if !t.HasAlbum() {
			logger.Warn("no album metadata for source track, skipping", "track", t.String())
			report.NoAlbum = append(report.NoAlbum, t)
			continue
		}

		report.Stats.Attempts++
		match, err := e.resolver.Resolve(ctx, dst.svc, t)
		if err != nil {
			return report, err
		}
		if match == nil {
			logger.Debug("no match found", "track", t.String())
			report.Missing = append(report.Missing, t)
			continue
		}
		resolved = append(resolved, *match)
		if _, ok := origin[match.ID]; !ok {
			origin[match.ID] = t
		}
		report.Stats.Success++
	}

	var queued []models.Track
	for _, t := range resolved {
		if matcher.Contains(target.Tracks, t) {
			logger.Debug("discrepancy, track already in destination playlist", "track", t.String())
			report.Stats.Attempts--
			report.Stats.Success--
			continue
		}
		if matcher.Contains(queued, t) {
			logger.Debug("discrepancy, duplicate track in tracks to synchronize", "track", t.String())
			report.Stats.Attempts--
			report.Stats.Success--
			continue
		}
		queued = append(queued, t)
	}
	report.New = queued

	added, rejected, err := e.commit(ctx, target, queued, dst)
	if len(rejected) > 0 {
		report.New = added
		report.Stats.Success -= len(rejected)
		for _, t := range rejected {
			report.Missing = append(report.Missing, origin[t.ID])
		}
	}
	return report, err
}

// commit adds queued tracks batch by batch and, with LikeAll, likes the added ones not liked yet.
//
// A batch rejected with a non-fatal error is returned in rejected and the next batch is tried. A
// fatal error stops the commit; the batches not written yet are rejected as well.
func (e *Engine) commit(ctx context.Context, target models.Playlist, queued []models.Track, dst *Destination) (added, rejected []models.Track, err error) {
	if len(queued) == 0 || e.opts.DryRun {
		return queued, nil, nil
	}

	sendProgress(e.progress, addTracksUpdate(len(queued), target.Name))
	var errs []error
	for batch := range slices.Chunk(queued, services.BatchSize) {
		if err := dst.svc.AddTracks(ctx, target.ID, batch); err != nil {
			if shared.IsFatal(err) {
				return added, queued[len(added)+len(rejected):], fmt.Errorf("failed to add tracks: %w", err)
			}
			e.logger.Warn("batch rejected, continuing", "playlist", target.Name, "count", len(batch), "error", err)
			rejected = append(rejected, batch...)
			errs = append(errs, err)
			continue
		}
		added = append(added, batch...)
	}

	if len(rejected) > 0 {
		err = fmt.Errorf("failed to add %d of %d tracks: %w", len(rejected), len(queued), errors.Join(errs...))
	}
	if lerr := e.like(ctx, added, dst); lerr != nil {
		return added, rejected, errors.Join(err, lerr)
	}
	return added, rejected, err
}

// like adds tracks missing from the destination likes when LikeAll is set.
func (e *Engine) like(ctx context.Context, tracks []models.Track, dst *Destination) error {
	if !e.opts.LikeAll || len(tracks) == 0 {
		return nil
	}

	var likes []models.Track
	for _, t := range tracks {
		if !matcher.Contains(dst.likes, t) {
			likes = append(likes, t)
		}
	}
	if len(likes) == 0 {
		return nil
	}
	if err := dst.svc.AddLikes(ctx, likes); err != nil {
		return fmt.Errorf("failed to like added tracks: %w", err)
	}
	dst.likes = append(dst.likes, likes...)
	return nil
}
