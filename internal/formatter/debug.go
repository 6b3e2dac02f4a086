package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
)

// Debug file names, each holding a JSON object keyed by playlist name
const (
	ConversionRateFile = "conversion_rate.json"
	NewSongsFile       = "new_songs.json"
	MissingSongsFile   = "missing_songs.json"
	NoAlbumSongsFile   = "song_with_no_albums.json"
)

// ConversionRate is the conversion_rate.json entry of one playlist.
type ConversionRate struct {
	Percentage float64 `json:"percentage"`
	Number     string  `json:"number"`
}

// DebugWriter is a [tasks.Observer] rewriting the debug JSON files into a directory after every playlist.
//
// Track files only receive playlists with at least one track in the respective list.
type DebugWriter struct {
	dir string

	mu      sync.Mutex
	rates   map[string]ConversionRate
	added   map[string][]models.Track
	missing map[string][]models.Track
	noAlbum map[string][]models.Track
}

// NewDebugWriter creates the output directory and returns a writer for it.
func NewDebugWriter(dir string) (*DebugWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	return &DebugWriter{
		dir:     dir,
		rates:   map[string]ConversionRate{},
		added:   map[string][]models.Track{},
		missing: map[string][]models.Track{},
		noAlbum: map[string][]models.Track{},
	}, nil
}

// Dir returns the output directory.
func (d *DebugWriter) Dir() string { return d.dir }

func (d *DebugWriter) PlaylistSynced(report models.PlaylistReport) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rates[report.Name] = ConversionRate{
		Percentage: report.Rate(),
		Number:     fmt.Sprintf("%d/%d", report.Stats.Success, report.Stats.Attempts),
	}
	if err := d.write(ConversionRateFile, d.rates); err != nil {
		return err
	}

	files := []struct {
		name   string
		all    map[string][]models.Track
		tracks []models.Track
	}{
		{NewSongsFile, d.added, report.New},
		{MissingSongsFile, d.missing, report.Missing},
		{NoAlbumSongsFile, d.noAlbum, report.NoAlbum},
	}
	for _, f := range files {
		if len(f.tracks) == 0 {
			continue
		}
		f.all[report.Name] = f.tracks
		if err := d.write(f.name, f.all); err != nil {
			return err
		}
	}
	return nil
}

// RunFinished is a no-op; files are current after every playlist.
func (d *DebugWriter) RunFinished(*tasks.SyncResult) error {
	return nil
}

func (d *DebugWriter) write(name string, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
