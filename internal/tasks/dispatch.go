package tasks

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
)

// Converter turns one task into a result. [encoder.Converter] implements it.
type Converter interface {
	Convert(ctx context.Context, task models.ConversionTask) models.ConversionResult
}

// DispatcherOpts configures a [Dispatcher].
type DispatcherOpts struct {
	Workers int             // Defaults to runtime.NumCPU()
	Stop    <-chan struct{} // Closing it stops submission; in-flight tasks finish
	Logger  *log.Logger
}

// Dispatcher runs conversions on a bounded worker pool.
type Dispatcher struct {
	converter Converter
	workers   int
	stop      <-chan struct{}
	logger    *log.Logger
}

// NewDispatcher creates a Dispatcher around converter.
func NewDispatcher(converter Converter, opts DispatcherOpts) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Dispatcher{converter: converter, workers: opts.Workers, stop: opts.Stop, logger: opts.Logger}
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

// Run converts tasks with at most Workers in flight and returns results in task order.
//
// pre holds results already known by task position (discovery skips, unreadable files); those slots never reach a worker
// and do not count toward progress. A failed task never stops the batch. Cancelling ctx stops submission and kills running
// encoders; closing the Stop channel only stops submission. Tasks never started are recorded as failed.
func (d *Dispatcher) Run(ctx context.Context, tasks []models.ConversionTask, pre map[int]models.ConversionResult, prog chan<- ProgressUpdate) *models.BatchReport {
	results := make([]models.ConversionResult, len(tasks))
	work := make([]int, 0, len(tasks))
	for i, task := range tasks {
		if r, ok := pre[i]; ok {
			r.Task = task
			results[i] = r
			continue
		}
		work = append(work, i)
	}

	total := len(work)
	workers := min(d.workers, total)
	sendProgress(prog, convertStartUpdate(total, workers))

	var completed atomic.Int64
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := d.converter.Convert(ctx, tasks[i])
				res.Task = tasks[i]
				results[i] = res

				n := int(completed.Add(1))
				d.log(res)
				sendProgress(prog, convertedUpdate(n, total, res))
			}
		}()
	}

	started := make([]bool, len(tasks))
submit:
	for _, i := range work {
		if d.stopped(ctx) {
			break
		}
		select {
		case <-ctx.Done():
			break submit
		case <-d.stop:
			break submit
		case jobs <- i:
			started[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	skipped := 0
	for _, i := range work {
		if !started[i] {
			results[i] = models.ConversionResult{Task: tasks[i], Outcome: models.Failed, Error: "cancelled: not started"}
			skipped++
		}
	}
	if skipped > 0 {
		d.logger.Warn("batch interrupted", "not_started", skipped)
	}

	return models.NewBatchReport(results)
}

func (d *Dispatcher) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-d.stop:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) log(res models.ConversionResult) {
	file := res.Task.Source.RelPath
	switch res.Outcome {
	case models.Failed:
		d.logger.Error("conversion failed", "file", file, "err", res.Error)
	case models.SkippedExists:
		d.logger.Debug("already converted", "file", file)
	case models.WouldConvert:
		d.logger.Info("would convert", "file", file, "dest", res.Task.Dest)
	default:
		d.logger.Info("converted", "file", file, "elapsed", res.Elapsed.Round(time.Millisecond))
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
