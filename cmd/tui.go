package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/tasks"
	"github.com/desertthunder/mp3cator/internal/ui"
)

// runTUI shows the progress view until the batch finishes.
//
// The caller redirects logs to a file first so they do not interfere with TUI rendering. ctrl+c and q reach the
// interrupter through the model; bubbletea's own signal handler is disabled so SIGINT and SIGTERM go to it too.
func (r *Runner) runTUI(ctx context.Context, s convertSettings, engine *tasks.BatchEngine, intr *interrupter) (*models.RunReport, error) {
	model := ui.NewModel(ctx, ui.ModelOpts{
		Title:     "Converting " + s.root,
		Run:       engine.Run,
		Interrupt: intr.Trigger,
	})

	final, err := tea.NewProgram(model, tea.WithOutput(r.output), tea.WithoutSignalHandler()).Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	m, ok := final.(*ui.Model)
	if !ok {
		return nil, errors.New("unexpected TUI model")
	}
	return m.Report(), m.Err()
}
