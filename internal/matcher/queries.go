package matcher

import (
	"strings"

	"github.com/desertthunder/plsync/internal/models"
)

// BuildQueries returns full-text search candidates for t, least specific first.
//
// Callers pop from the end so the most constrained query (title, artist and album) is tried first.
func BuildQueries(t models.Track) []string {
	queries := make([]string, 0, 1+2*len(t.Artists))
	album := t.AlbumName()

	if t.HasAlbum() {
		queries = append(queries, join(t.Title, album))
	}
	for i := len(t.Artists) - 1; i >= 0; i-- {
		queries = append(queries, join(t.Title, t.Artists[i].Name))
	}
	if t.HasAlbum() {
		for i := len(t.Artists) - 1; i >= 0; i-- {
			queries = append(queries, join(t.Title, t.Artists[i].Name, album))
		}
	}
	return queries
}

func join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
