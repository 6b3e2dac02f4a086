package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/desertthunder/plsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI lets the user pick playlists and follows the sync in the terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs would tear the rendering apart
	fileLogger, err := shared.NewFileLogger("./tmp/plsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	src, dst, err := r.connectPair(ctx, cmd)
	if err != nil {
		return err
	}
	defer r.persistTokens(src, dst)

	opts := r.engineOptions(cmd)
	observers, closeFn := r.observers(src.Platform(), dst.Platform())
	defer closeFn()

	model := ui.NewModel(ctx, tasks.NewEngine(opts, r.logger, observers...), src, dst)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if m, ok := final.(*ui.Model); ok {
		return m.Err()
	}
	return nil
}
