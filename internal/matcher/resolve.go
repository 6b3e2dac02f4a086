package matcher

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// Window is the number of ranked search results compared per query.
const Window = 3

// Searcher runs a full-text track search on a destination catalog.
type Searcher interface {
	SearchTrack(ctx context.Context, query string) ([]models.Track, error)
}

// ISRCSearcher is implemented by catalogs that can look tracks up by ISRC.
type ISRCSearcher interface {
	SearchISRC(ctx context.Context, isrc string) ([]models.Track, error)
}

// Resolver finds the destination counterpart of a source track.
type Resolver struct {
	logger *log.Logger
	window int
}

// NewResolver creates a [Resolver]. A nil logger discards output.
func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{logger: logger, window: Window}
}

// Resolve searches s for t and returns the first accepted candidate, or nil when nothing matches.
//
// An ISRC lookup is tried first when s supports it. Text queries from [BuildQueries] are then popped
// from the end and the top [Window] results of each are compared with [Matches].
// Non-fatal search errors skip the failing query; fatal ones are returned.
func (r *Resolver) Resolve(ctx context.Context, s Searcher, t models.Track) (*models.Track, error) {
	if lookup, ok := s.(ISRCSearcher); ok && t.ISRC != "" {
		results, err := lookup.SearchISRC(ctx, t.ISRC)
		switch {
		case shared.IsFatal(err):
			return nil, err
		case err != nil:
			r.logger.Warn("isrc lookup failed", "isrc", t.ISRC, "error", err)
		default:
			if found := r.pick(t, results); found != nil {
				return found, nil
			}
		}
	}

	queries := BuildQueries(t)
	for len(queries) > 0 {
		query := queries[len(queries)-1]
		queries = queries[:len(queries)-1]

		results, err := s.SearchTrack(ctx, query)
		if err != nil {
			if shared.IsFatal(err) {
				return nil, err
			}
			r.logger.Warn("search failed", "query", query, "error", err)
			continue
		}

		if found := r.pick(t, results); found != nil {
			r.logger.Debug("resolved", "track", t.Title, "query", query, "id", found.ID)
			return found, nil
		}
	}

	return nil, nil
}

func (r *Resolver) pick(t models.Track, results []models.Track) *models.Track {
	for i := 0; i < len(results) && i < r.window; i++ {
		if Matches(t, results[i]) {
			found := results[i]
			return &found
		}
	}
	return nil
}
