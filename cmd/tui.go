package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plstat/internal/shared"
	"github.com/desertthunder/plstat/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI authenticates, then launches the interactive playlist picker and report viewer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	if path := r.config.Log.File; path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	analyzer := r.analyzer(session)

	name, err := analyzer.DisplayName(ctx)
	if err != nil {
		return err
	}
	r.writePlain("Logged in as %s\n", name)

	model := ui.NewModel(ctx, analyzer, name)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if m, ok := final.(*ui.Model); ok {
		if err := m.Err(); err != nil {
			return err
		}
		if notice := m.Notice(); notice != "" {
			return r.writePlain("%s\n", notice)
		}
	}
	return nil
}
