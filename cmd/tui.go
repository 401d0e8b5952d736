package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/ui"
)

// TUI launches the interactive terminal UI for matching links.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}
	if len(r.services) == 0 {
		return fmt.Errorf("%w: configure Spotify or Apple Music credentials first", shared.ErrMissingCredentials)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.track(closer)
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, ui.WithPlatform(platform), ui.WithOpener(r.open))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
