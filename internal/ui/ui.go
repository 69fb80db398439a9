package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/tasks"
)

const recentLines = 8

// RunFunc runs a batch, sending updates to prog. It must not close prog.
type RunFunc func(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*models.RunReport, error)

// ModelOpts configures the progress view.
type ModelOpts struct {
	Title     string
	Run       RunFunc
	Interrupt func() int // Called on every stop key press, returns the number of presses so far
}

// Model represents the progress view state.
type Model struct {
	ctx          context.Context
	opts         ModelOpts
	progressChan chan tasks.ProgressUpdate
	doneChan     chan runResult
	update       tasks.ProgressUpdate
	bar          progress.Model
	help         help.Model
	keys         keyMap
	recent       []string
	counts       map[models.Outcome]int
	presses      int
	started      time.Time
	report       *models.RunReport
	err          error
	done         bool
	width        int
}

// NewModel creates a progress view that runs opts.Run once started.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Interrupt == nil {
		opts.Interrupt = func() int { return 0 }
	}
	return &Model{
		ctx:    ctx,
		opts:   opts,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
		counts: map[models.Outcome]int{},
	}
}

// Init starts the batch.
func (m *Model) Init() tea.Cmd {
	return m.startRun()
}

// Report returns the finished run, or nil while it is still going.
func (m *Model) Report() *models.RunReport { return m.report }

// Err returns the error the run ended with.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.stop):
			if m.done {
				return m, tea.Quit
			}
			m.presses = m.opts.Interrupt()
			return m, nil
		case key.Matches(msg, m.keys.help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if pm, ok := bar.(progress.Model); ok {
			m.bar = pm
		}
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			return m, tea.Batch(m.apply(update), m.waitForProgress())
		case MsgRunComplete:
			res := msg.data.(runResult)
			m.report = res.report
			m.err = res.err
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// apply records an update and returns the progress bar animation, if any.
func (m *Model) apply(update tasks.ProgressUpdate) tea.Cmd {
	m.update = update
	if update.Phase != tasks.Convert || update.Total == 0 {
		return nil
	}

	if res, ok := update.Result(); ok {
		m.counts[res.Outcome]++
		line := styles.Outcome(res.Outcome).Render(update.Message)
		if res.Error != "" {
			line += styles.help.Render("  " + firstLine(res.Error))
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
	}
	return m.bar.SetPercent(float64(update.Step) / float64(update.Total))
}

// View renders the progress view.
func (m *Model) View() string {
	var b strings.Builder

	title := m.opts.Title
	if title == "" {
		title = "Converting"
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if m.update.Message != "" {
		fmt.Fprintf(&b, "%s\n", m.update.Message)
	}

	if m.update.Phase >= tasks.Convert {
		fmt.Fprintf(&b, "\n%s\n", m.bar.View())
		fmt.Fprintf(&b, "%s  %s  %s  %s\n",
			styles.ok.Render(fmt.Sprintf("✓ %d", m.counts[models.Succeeded])),
			styles.help.Render(fmt.Sprintf("- %d", m.counts[models.SkippedExists])),
			styles.err.Render(fmt.Sprintf("✗ %d", m.counts[models.Failed])),
			styles.help.Render(time.Since(m.started).Round(time.Second).String()),
		)
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, line := range m.recent {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	switch {
	case m.done:
	case m.presses == 1:
		b.WriteString("\n" + styles.warn.Render("Stopping: waiting for running encoders to finish (press q again to abort)") + "\n")
	case m.presses > 1:
		b.WriteString("\n" + styles.err.Render("Aborting: stopping running encoders") + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m *Model) startRun() tea.Cmd {
	m.started = time.Now()
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan runResult, 1)

	go func() {
		report, err := m.opts.Run(m.ctx, m.progressChan)
		m.doneChan <- runResult{report, err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			res := <-doneChan
			return runCompleteMsg(res.report, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
