package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = reportItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	selected bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }

func (i playlistItem) Title() string {
	if i.selected {
		return "[x] " + i.playlist.Name
	}
	return "[ ] " + i.playlist.Name
}

func (i playlistItem) Description() string {
	ms := 0
	for _, t := range i.playlist.Tracks {
		ms += t.DurationMS
	}
	return fmt.Sprintf("%d tracks • %s", len(i.playlist.Tracks), shared.FormatDuration(ms))
}

// reportItem wraps [models.PlaylistReport] to implement [list.Item].
type reportItem struct {
	report models.PlaylistReport
}

func (i reportItem) FilterValue() string { return i.report.Name }
func (i reportItem) Title() string       { return i.report.Name }
func (i reportItem) Description() string {
	desc := fmt.Sprintf("%d/%d converted (%.1f%%) • %d added",
		i.report.Stats.Success, i.report.Stats.Attempts, i.report.Rate()*100, len(i.report.New))
	if n := len(i.report.Missing); n > 0 {
		desc = fmt.Sprintf("%s • %d missing", desc, n)
	}
	if i.report.Created {
		desc += " • created"
	}
	return desc
}
