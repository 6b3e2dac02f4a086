package main

import (
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows under headers with rounded borders. Short rows are padded.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func toRow(cells []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

var reportHeaders = []string{"Playlist", "Added", "Converted", "Rate", "Missing", "No album"}

var reportAligns = []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}

func reportRow(r models.PlaylistReport) []string {
	name := r.Name
	if r.Created {
		name += " (new)"
	}
	return []string{
		name,
		fmt.Sprint(len(r.New)),
		fmt.Sprintf("%d/%d", r.Stats.Success, r.Stats.Attempts),
		formatRate(r.Rate()),
		fmt.Sprint(len(r.Missing)),
		fmt.Sprint(len(r.NoAlbum)),
	}
}

// summaryTable renders one row per report of result, the liked songs last.
func summaryTable(result *tasks.SyncResult) string {
	rows := make([][]string, 0, len(result.Reports)+1)
	for _, r := range result.Reports {
		rows = append(rows, reportRow(r))
	}
	if result.Likes != nil {
		rows = append(rows, reportRow(*result.Likes))
	}
	return renderTable(reportHeaders, rows, reportAligns)
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}
