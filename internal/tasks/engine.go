package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/finder"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/planner"
	"github.com/desertthunder/mp3cator/internal/postcheck"
	"github.com/desertthunder/mp3cator/internal/shared"
)

// EngineOpts configures one batch run.
type EngineOpts struct {
	Planner   planner.Options // Root and output mode
	Converter Converter
	Workers   int
	PostCheck bool
	Delete    bool
	DryRun    bool
	Stop      <-chan struct{} // Closed on the first interrupt
	Remove    func(string) error
	Logger    *log.Logger
	RunID     string
	Options   models.RunOptions // Echoed into the report
}

// BatchEngine wires discovery, planning, dispatch and post-check into one run.
type BatchEngine struct {
	opts   EngineOpts
	logger *log.Logger
}

// NewBatchEngine creates an engine. Planner.Root must be absolute.
func NewBatchEngine(opts EngineOpts) *BatchEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RunID == "" {
		opts.RunID = shared.GenerateID()
	}
	return &BatchEngine{opts: opts, logger: shared.WithLogger(opts.Logger, "run", shortID(opts.RunID))}
}

// Run executes the batch. Only discovery and path collision errors are returned; every per-file problem ends up in the report.
func (e *BatchEngine) Run(ctx context.Context, prog chan<- ProgressUpdate) (*models.RunReport, error) {
	started := time.Now()
	popts := e.opts.Planner
	mode := popts.Mode()

	report := &models.RunReport{
		ID:        e.opts.RunID,
		Root:      popts.Root,
		Mode:      mode,
		Options:   e.opts.Options,
		StartedAt: started,
	}

	sendProgress(prog, discoveringUpdate(popts.Root))
	f := finder.New(popts.Root, func(s models.SourceFile) string { return planner.Destination(s, popts) }, popts.OutputRoots(), e.logger)
	candidates, err := f.Collect(ctx)
	if err != nil {
		return nil, err
	}

	tasks, pre, err := plan(candidates, popts)
	if err != nil {
		return nil, err
	}

	skipped := 0
	for _, c := range candidates {
		if c.Status == finder.AlreadyConverted {
			skipped++
		}
	}
	e.logger.Info("discovery finished", "found", len(candidates), "skipping", skipped, "mode", mode)
	sendProgress(prog, discoveredUpdate(len(candidates), skipped))
	sendProgress(prog, planUpdate(len(tasks), mode))

	d := NewDispatcher(e.opts.Converter, DispatcherOpts{Workers: e.opts.Workers, Stop: e.opts.Stop, Logger: e.logger})
	report.Batch = d.Run(ctx, tasks, pre, prog)
	report.Interrupted = ctx.Err() != nil || closed(e.opts.Stop)

	switch {
	case !e.opts.PostCheck:
	case e.opts.DryRun:
		e.logger.Info("skipping post-check in dry run")
	case report.Interrupted:
		e.logger.Warn("skipping post-check after interrupt")
	default:
		sendProgress(prog, verifyUpdate(report.Batch.Converted+report.Batch.Skipped))
		report.PostCheck = postcheck.Check(report.Batch, postcheck.Options{
			Delete: e.opts.Delete,
			Logger: e.logger,
			Remove: e.opts.Remove,
		})
		if e.opts.Delete && report.PostCheck.DeletionWithheld == "" {
			pc := report.PostCheck
			sendProgress(prog, deleteUpdate(len(pc.Deleted), len(pc.Deleted)+len(pc.DeletionFailures)))
		}
	}

	report.Duration = time.Since(started)
	sendProgress(prog, doneUpdate(report.Batch))
	return report, nil
}

// plan turns candidates into tasks in discovery order. Unreadable candidates get a task slot with a pre-filled failure.
func plan(candidates []finder.Candidate, opts planner.Options) ([]models.ConversionTask, map[int]models.ConversionResult, error) {
	readable := make([]models.SourceFile, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != finder.Unreadable {
			readable = append(readable, c.Source)
		}
	}

	planned, err := planner.PlanBatch(readable, opts)
	if err != nil {
		return nil, nil, err
	}

	mode := opts.Mode()
	tasks := make([]models.ConversionTask, 0, len(candidates))
	pre := map[int]models.ConversionResult{}
	next := 0

	for _, c := range candidates {
		idx := len(tasks)
		switch c.Status {
		case finder.Unreadable:
			tasks = append(tasks, models.ConversionTask{Index: idx, Source: c.Source, Mode: mode})
			pre[idx] = models.ConversionResult{Outcome: models.Failed, Error: "unreadable: " + errString(c.Err)}
			continue
		case finder.AlreadyConverted:
			pre[idx] = models.ConversionResult{Outcome: models.SkippedExists}
		}
		t := planned[next]
		next++
		t.Index = idx
		tasks = append(tasks, t)
	}
	return tasks, pre, nil
}

func closed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
