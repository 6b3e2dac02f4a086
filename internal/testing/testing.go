// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/plsync/internal/models"
)

// FakeService is an in-memory streaming platform implementing services.Service and services.ISRCSearcher.
//
// Catalog holds the searchable tracks. A query returns catalog tracks whose title occurs in the query,
// in catalog order. Errors keyed by query (or by "isrc:"+code) are returned instead of results.
// FailAdd fails every AddTracks call, or only the FailAddOn-th one (1-based) when set.
type FakeService struct {
	Plat       models.Platform
	Country    string
	HasRegion  bool
	Catalog    []models.Track
	Liked      []models.Track
	Errors     map[string]error
	FailAdd    error
	FailAddOn  int
	FailCreate error
	FailList   error
	FailLike   error

	mu        sync.Mutex
	playlists []models.Playlist
	nextID    int
	adds      int

	Searches []string
	Created  []string
	AddCalls int
	LikeAdds int
}

// NewFakeService creates an empty [FakeService] for platform p.
func NewFakeService(p models.Platform) *FakeService {
	return &FakeService{Plat: p, Errors: map[string]error{}}
}

// AddPlaylist stores a playlist with tracks and returns its id.
func (f *FakeService) AddPlaylist(name string, tracks ...models.Track) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%s-pl-%d", f.Plat, f.nextID)
	f.playlists = append(f.playlists, models.Playlist{ID: id, Name: name, Tracks: append([]models.Track(nil), tracks...)})
	return id
}

// Playlist returns the stored playlist named name.
func (f *FakeService) Playlist(name string) (models.Playlist, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.playlists {
		if p.Name == name {
			return p, true
		}
	}
	return models.Playlist{}, false
}

func (f *FakeService) Name() string              { return f.Plat.Label() }
func (f *FakeService) Platform() models.Platform { return f.Plat }
func (f *FakeService) ReportsRegion() bool       { return f.HasRegion }

func (f *FakeService) Region(ctx context.Context) (string, error) {
	if !f.HasRegion {
		return "", nil
	}
	return f.Country, nil
}

func (f *FakeService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if f.FailList != nil {
		return nil, f.FailList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Playlist, len(f.playlists))
	for i, p := range f.playlists {
		out[i] = models.Playlist{ID: p.ID, Name: p.Name}
	}
	return out, nil
}

func (f *FakeService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.playlists {
		if p.ID == playlistID {
			return append([]models.Track(nil), p.Tracks...), nil
		}
	}
	return nil, fmt.Errorf("playlist %s not found", playlistID)
}

func (f *FakeService) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	id := f.AddPlaylist(name)
	f.mu.Lock()
	f.Created = append(f.Created, name)
	f.mu.Unlock()
	return &models.Playlist{ID: id, Name: name}, nil
}

func (f *FakeService) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.FailAdd != nil && (f.FailAddOn == 0 || f.FailAddOn == f.adds) {
		return f.FailAdd
	}
	f.AddCalls++
	for i := range f.playlists {
		if f.playlists[i].ID == playlistID {
			f.playlists[i].Tracks = append(f.playlists[i].Tracks, tracks...)
			return nil
		}
	}
	return fmt.Errorf("playlist %s not found", playlistID)
}

func (f *FakeService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		drop[t.ID] = true
	}
	for i := range f.playlists {
		if f.playlists[i].ID != playlistID {
			continue
		}
		kept := f.playlists[i].Tracks[:0]
		for _, t := range f.playlists[i].Tracks {
			if !drop[t.ID] {
				kept = append(kept, t)
			}
		}
		f.playlists[i].Tracks = kept
		return nil
	}
	return fmt.Errorf("playlist %s not found", playlistID)
}

func (f *FakeService) DeletePlaylist(ctx context.Context, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.playlists {
		if p.ID == playlistID {
			f.playlists = append(f.playlists[:i], f.playlists[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("playlist %s not found", playlistID)
}

func (f *FakeService) SearchTrack(ctx context.Context, query string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)
	if err, ok := f.Errors[query]; ok {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []models.Track
	for _, t := range f.Catalog {
		if strings.Contains(q, strings.ToLower(t.Title)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *FakeService) SearchISRC(ctx context.Context, isrc string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errors["isrc:"+isrc]; ok {
		return nil, err
	}
	var out []models.Track
	for _, t := range f.Catalog {
		if t.ISRC == isrc {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *FakeService) AddLikes(ctx context.Context, tracks []models.Track) error {
	if f.FailLike != nil {
		return f.FailLike
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LikeAdds++
	f.Liked = append(f.Liked, tracks...)
	return nil
}

func (f *FakeService) Likes(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Track(nil), f.Liked...), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
