// package formatter writes sync reports and playlist snapshots to files (JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
)

// Track statuses used in report exports
const (
	StatusAdded   = "added"
	StatusMissing = "missing"
	StatusNoAlbum = "no_album"
)

// ReportToCSV converts a report to CSV with columns: Status, ID, Title, Artists, Album, Duration, ISRC
func ReportToCSV(report models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "ID", "Title", "Artists", "Album", "Duration", "ISRC"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	groups := []struct {
		status string
		tracks []models.Track
	}{
		{StatusAdded, report.New},
		{StatusMissing, report.Missing},
		{StatusNoAlbum, report.NoAlbum},
	}
	for _, g := range groups {
		for _, track := range g.tracks {
			record := []string{
				g.status,
				track.ID,
				track.Title,
				strings.Join(track.ArtistNames(), "; "),
				track.AlbumName(),
				shared.FormatDuration(track.DurationMS),
				track.ISRC,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToMarkdown renders a run summary with one section per playlist listing missing tracks
func ResultToMarkdown(result *tasks.SyncResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s → %s\n\n", result.Source.Label(), result.Destination.Label())
	fmt.Fprintf(&buf, "**Started**: %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&buf, "**Duration**: %s\n", result.Duration().Round(time.Millisecond))
	if result.DryRun {
		buf.WriteString("**Dry run**: nothing was written\n")
	}
	if result.Err != nil {
		fmt.Fprintf(&buf, "**Error**: %v\n", result.Err)
	}

	total := result.Stats()
	fmt.Fprintf(&buf, "**Converted**: %d/%d (%.2f%%)\n\n", total.Success, total.Attempts, total.Rate()*100)

	reports := result.Reports
	if result.Likes != nil {
		reports = append(reports[:len(reports):len(reports)], *result.Likes)
	}
	for _, r := range reports {
		fmt.Fprintf(&buf, "## %s\n\n", r.Name)
		fmt.Fprintf(&buf, "%d/%d converted (%.2f%%), %d added", r.Stats.Success, r.Stats.Attempts, r.Rate()*100, len(r.New))
		if r.Created {
			buf.WriteString(", playlist created")
		}
		buf.WriteString("\n\n")

		if len(r.Missing) > 0 {
			buf.WriteString("### Missing\n\n")
			for i, t := range r.Missing {
				fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, t.String(), shared.FormatDuration(t.DurationMS))
			}
			buf.WriteString("\n")
		}
		if len(r.NoAlbum) > 0 {
			buf.WriteString("### Without album\n\n")
			for i, t := range r.NoAlbum {
				fmt.Fprintf(&buf, "%d. %s\n", i+1, t.String())
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes()
}

// WriteReports writes one CSV file per report of result into dir, plus a summary.md.
//
// Returns the written paths.
func WriteReports(result *tasks.SyncResult, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	reports := result.Reports
	if result.Likes != nil {
		reports = append(reports[:len(reports):len(reports)], *result.Likes)
	}
	for _, r := range reports {
		data, err := ReportToCSV(r)
		if err != nil {
			return files, err
		}
		path := filepath.Join(dir, FileName(r.Name)+".csv")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return files, fmt.Errorf("failed to write CSV file: %w", err)
		}
		files = append(files, path)
	}

	summary := filepath.Join(dir, "summary.md")
	if err := os.WriteFile(summary, ResultToMarkdown(result), 0644); err != nil {
		return files, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return append(files, summary), nil
}

// FileName turns a playlist name into a safe file name.
func FileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "playlist"
	}
	return name
}
