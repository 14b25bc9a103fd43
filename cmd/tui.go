package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixflow/internal/engine"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for sorting a song collection.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: sort engine not initialized", shared.ErrServiceUnavailable)
	}

	songs, err := loadSongs(cmd.String("input"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mixflow-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts := engine.Options{
		SkipAI:    cmd.Bool("skip-ai"),
		SkipQueue: cmd.Bool("skip-queue"),
	}

	model := ui.NewModel(ctx, r.engine, songs, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
