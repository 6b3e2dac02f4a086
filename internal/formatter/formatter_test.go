package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	th "github.com/desertthunder/plsync/internal/testing"
)

func sampleTrack(id, title string) models.Track {
	return models.Track{
		Platform:   models.Spotify,
		ID:         id,
		ISRC:       "USRC11234567",
		Title:      title,
		Album:      &models.Album{ID: "al1", Name: "Album One"},
		Artists:    []models.Artist{{Name: "Artist One"}, {Name: "Artist Two"}},
		DurationMS: 185_000,
	}
}

func sampleReport() models.PlaylistReport {
	noAlbum := sampleTrack("t3", "Video Only")
	noAlbum.Album = nil
	return models.PlaylistReport{
		Name:    "Road Trip",
		Created: true,
		Stats:   models.Stats{Success: 1, Attempts: 2},
		New:     []models.Track{sampleTrack("t1", "Song One")},
		Missing: []models.Track{sampleTrack("t2", "Song Two")},
		NoAlbum: []models.Track{noAlbum},
	}
}

func TestReportToCSV(t *testing.T) {
	data, err := ReportToCSV(sampleReport())
	if err != nil {
		t.Fatalf("ReportToCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines: %s", len(lines), data)
	}
	if lines[0] != "Status,ID,Title,Artists,Album,Duration,ISRC" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "added,t1,Song One,Artist One; Artist Two,Album One,3:05,USRC11234567" {
		t.Errorf("unexpected added row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "missing,t2,") {
		t.Errorf("unexpected missing row %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "no_album,t3,Video Only,Artist One; Artist Two,,") {
		t.Errorf("unexpected no album row %q", lines[3])
	}
}

func TestResultToMarkdown(t *testing.T) {
	likes := models.PlaylistReport{Name: tasks.LikedSongs, Stats: models.Stats{Success: 3, Attempts: 3}}
	result := &tasks.SyncResult{
		Source:      models.Spotify,
		Destination: models.Tidal,
		DryRun:      true,
		Reports:     []models.PlaylistReport{sampleReport()},
		Likes:       &likes,
		StartedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC),
		Err:         errors.New("boom"),
	}

	output := string(ResultToMarkdown(result))
	for _, want := range []string{
		"# Spotify → Tidal",
		"**Started**: 2024-05-01 10:00:00",
		"**Duration**: 2s",
		"**Dry run**",
		"**Error**: boom",
		"**Converted**: 1/2 (50.00%)",
		"## Road Trip",
		"1/2 converted (50.00%), 1 added, playlist created",
		"### Missing",
		"1. Artist One, Artist Two - Song Two (Album One) [3:05]",
		"### Without album",
		"## Liked Songs",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown missing %q:\n%s", want, output)
		}
	}
	if len(result.Reports) != 1 {
		t.Errorf("expected reports slice untouched, got %d", len(result.Reports))
	}
}

func TestWriteReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	report := sampleReport()
	report.Name = "AC/DC: Best"
	result := &tasks.SyncResult{Source: models.Spotify, Destination: models.Tidal, Reports: []models.PlaylistReport{report}}

	files, err := WriteReports(result, dir)
	if err != nil {
		t.Fatalf("WriteReports failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if filepath.Base(files[0]) != "AC_DC_ Best.csv" {
		t.Errorf("unexpected csv name %s", files[0])
	}
	for _, f := range files {
		th.AssertFileExists(t, f)
	}
	if !strings.Contains(th.MustReadFile(t, files[1]), "## AC/DC: Best") {
		t.Error("expected summary to list the playlist")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Chill", "Chill"},
		{" a/b\\c ", "a_b_c"},
		{"what?", "what_"},
		{"   ", "playlist"},
	}
	for _, tt := range tests {
		if got := FileName(tt.in); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDebugWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	w, err := NewDebugWriter(dir)
	if err != nil {
		t.Fatalf("NewDebugWriter failed: %v", err)
	}
	var _ tasks.Observer = w

	if err := w.PlaylistSynced(sampleReport()); err != nil {
		t.Fatalf("PlaylistSynced failed: %v", err)
	}
	empty := models.PlaylistReport{Name: "Quiet"}
	if err := w.PlaylistSynced(empty); err != nil {
		t.Fatalf("PlaylistSynced failed: %v", err)
	}
	if err := w.RunFinished(&tasks.SyncResult{}); err != nil {
		t.Fatalf("RunFinished failed: %v", err)
	}

	var rates map[string]ConversionRate
	if err := json.Unmarshal([]byte(th.MustReadFile(t, filepath.Join(dir, ConversionRateFile))), &rates); err != nil {
		t.Fatalf("invalid conversion rates: %v", err)
	}
	if rates["Road Trip"] != (ConversionRate{Percentage: 0.5, Number: "1/2"}) {
		t.Errorf("unexpected rate %+v", rates["Road Trip"])
	}
	if rates["Quiet"] != (ConversionRate{Percentage: 1, Number: "0/0"}) {
		t.Errorf("unexpected rate %+v", rates["Quiet"])
	}

	for _, name := range []string{NewSongsFile, MissingSongsFile, NoAlbumSongsFile} {
		var tracks map[string][]map[string]any
		if err := json.Unmarshal([]byte(th.MustReadFile(t, filepath.Join(dir, name))), &tracks); err != nil {
			t.Fatalf("invalid %s: %v", name, err)
		}
		if len(tracks["Road Trip"]) != 1 {
			t.Errorf("%s: expected one Road Trip track, got %v", name, tracks)
		}
		if _, ok := tracks["Quiet"]; ok {
			t.Errorf("%s: expected empty playlists to be left out", name)
		}
		if _, ok := tracks["Road Trip"][0]["primary_id"]; !ok {
			t.Errorf("%s: expected model field names", name)
		}
	}
}

func TestSnapshot(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "p1", Name: "Road Trip", Tracks: []models.Track{sampleTrack("t1", "Song One")}},
		{ID: "p2", Name: "Empty", Tracks: []models.Track{}},
	}

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
		if err := SaveSnapshot(path, playlists); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, field := range []string{`"source_platform": "spotify"`, `"primary_id": "t1"`, `"duration_ms": 185000`, `"tracks"`} {
			if !strings.Contains(content, field) {
				t.Errorf("snapshot missing %s", field)
			}
		}

		loaded, err := LoadSnapshot(path)
		if err != nil {
			t.Fatalf("LoadSnapshot failed: %v", err)
		}
		if len(loaded) != 2 || loaded[0].Tracks[0].Album.Name != "Album One" || loaded[0].Tracks[0].ISRC != "USRC11234567" {
			t.Errorf("unexpected snapshot %+v", loaded)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ReadSnapshot(bytes.NewBufferString(`{"not": "a list"}`))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not exist error, got %v", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		if err := WriteSnapshot(&th.FWriter{}, playlists); err == nil {
			t.Error("expected write error")
		}
	})
}
