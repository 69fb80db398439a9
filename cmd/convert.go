package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/encoder"
	"github.com/desertthunder/mp3cator/internal/formatter"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/planner"
	"github.com/desertthunder/mp3cator/internal/shared"
	"github.com/desertthunder/mp3cator/internal/tags"
	"github.com/desertthunder/mp3cator/internal/tasks"
	"github.com/desertthunder/mp3cator/internal/ui"
	"github.com/urfave/cli/v3"
)

// convertSettings is the result of merging flags over the config file.
type convertSettings struct {
	root         string
	outputDir    string
	bitrate      string
	threads      int
	restructure  bool
	postCheck    bool
	delete       bool
	dryRun       bool
	inferTags    bool
	reportPath   string
	reportFormat string
	noTUI        bool
	logFile      string
}

func (s convertSettings) runOptions() models.RunOptions {
	return models.RunOptions{
		Bitrate:     s.bitrate,
		Threads:     s.threads,
		Restructure: s.restructure,
		OutputDir:   s.outputDir,
		PostCheck:   s.postCheck,
		Delete:      s.delete,
		DryRun:      s.dryRun,
	}
}

// settings validates flags before anything touches the disk.
func (r *Runner) settings(cmd *cli.Command) (convertSettings, error) {
	conf := r.config
	s := convertSettings{
		bitrate:      conf.Convert.Bitrate,
		threads:      conf.Convert.Threads,
		restructure:  cmd.Bool("restructure"),
		outputDir:    cmd.String("output-dir"),
		postCheck:    cmd.Bool("post-check"),
		delete:       cmd.Bool("delete"),
		dryRun:       cmd.Bool("dry-run"),
		inferTags:    conf.Convert.InferTags || cmd.Bool("infer-tags"),
		reportPath:   conf.Report.Path,
		reportFormat: conf.Report.Format,
		noTUI:        cmd.Bool("no-tui"),
		logFile:      conf.Logging.File,
	}

	if cmd.NArg() == 0 {
		return s, fmt.Errorf("%w: folder_path", shared.ErrMissingArgument)
	}
	if cmd.NArg() > 1 {
		return s, fmt.Errorf("%w: expected one folder, got %d", shared.ErrInvalidArgument, cmd.NArg())
	}

	if s.delete && !s.postCheck {
		return s, fmt.Errorf("%w: --delete requires --post-check", shared.ErrInvalidFlag)
	}

	if cmd.IsSet("bitrate") {
		s.bitrate = cmd.String("bitrate")
	}
	bitrate, err := shared.NormalizeBitrate(s.bitrate)
	if err != nil {
		return s, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	s.bitrate = bitrate

	if cmd.IsSet("threads") {
		s.threads = int(cmd.Int("threads"))
		if s.threads < 1 {
			return s, fmt.Errorf("%w: --threads must be at least 1", shared.ErrInvalidFlag)
		}
	}
	if s.threads == 0 {
		s.threads = runtime.NumCPU()
	}

	if cmd.IsSet("report") {
		s.reportPath = cmd.String("report")
	}
	if cmd.IsSet("report-format") {
		s.reportFormat = strings.ToLower(cmd.String("report-format"))
	}
	if !formatter.ValidFormat(s.reportFormat) {
		return s, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, s.reportFormat)
	}
	if cmd.IsSet("log-file") {
		s.logFile = cmd.String("log-file")
	}

	s.root, err = absPath(cmd.Args().First())
	if err != nil {
		return s, &shared.DiscoveryError{Root: cmd.Args().First(), Err: err}
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return s, &shared.DiscoveryError{Root: s.root, Err: err}
	}
	if !info.IsDir() {
		return s, &shared.DiscoveryError{Root: s.root, Err: errors.New("not a directory")}
	}

	if s.outputDir != "" {
		if s.outputDir, err = prepareOutputDir(s.outputDir, s.dryRun); err != nil {
			return s, err
		}
	}
	return s, nil
}

// prepareOutputDir makes dir absolute, creates it unless dryRun and checks that it is writable.
func prepareOutputDir(dir string, dryRun bool) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: output dir %s: %v", shared.ErrInvalidFlag, dir, err)
	}
	if dryRun {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			return resolved, nil
		}
		return abs, nil
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("%w: cannot create output dir %s: %v", shared.ErrInvalidFlag, abs, err)
	}
	tmp, err := os.CreateTemp(abs, ".mp3cator-write-*")
	if err != nil {
		return "", fmt.Errorf("%w: output dir %s is not writable: %v", shared.ErrInvalidFlag, abs, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return absPath(abs)
}

// absPath returns the absolute, symlink-resolved path so the root and output dir compare reliably.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Convert discovers, converts and optionally verifies and deletes every .ogg under the folder argument.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	s, err := r.settings(cmd)
	if err != nil {
		return err
	}

	if s.restructure && s.outputDir != "" {
		r.writePlain("Note: --output-dir overrides --restructure\n")
	}

	tools := r.config.Tools
	if err := r.preflight(ctx, r.exec, tools.FFmpeg, tools.FFprobe); err != nil {
		return err
	}

	lock, err := shared.AcquireRunLock(s.root)
	if err != nil {
		return err
	}
	defer lock.Release()

	useTUI := !s.noTUI && r.terminal(r.output)
	logger := r.logger
	if useTUI {
		fileLogger, f, err := shared.NewFileLogger(s.logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		fileLogger.SetLevel(r.logger.GetLevel())
		logger = fileLogger
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	intr := newInterrupter(cancel, logger)
	unwatch := intr.watch()
	defer unwatch()

	engine := r.engine(s, intr.Stop(), logger)
	logger.Info("starting batch", "root", s.root, "bitrate", s.bitrate, "threads", s.threads, "dry_run", s.dryRun)

	var report *models.RunReport
	if useTUI {
		report, err = r.runTUI(runCtx, s, engine, intr)
	} else {
		report, err = r.runPlain(runCtx, engine)
	}

	if err != nil {
		if intr.Interrupted() && errors.Is(err, context.Canceled) {
			return shared.ErrInterrupted
		}
		return err
	}
	return r.finish(report, s, logger)
}

func (r *Runner) engine(s convertSettings, stop <-chan struct{}, logger *log.Logger) *tasks.BatchEngine {
	conf := r.config
	extractor := tags.NewExtractor(tags.ExtractorOpts{
		Runner:      r.exec,
		FFprobe:     conf.Tools.FFprobe,
		Timeout:     conf.Tools.TagTimeout.Duration,
		FolderCover: conf.Convert.FolderCover,
		Logger:      logger,
	})
	converter := encoder.NewConverter(encoder.Options{
		Runner:        r.exec,
		Tags:          extractor,
		FFmpeg:        conf.Tools.FFmpeg,
		Bitrate:       s.bitrate,
		DryRun:        s.dryRun,
		InferTags:     s.inferTags,
		MaxLaunchRate: conf.Convert.MaxLaunchRate,
		Logger:        logger,
	})

	return tasks.NewBatchEngine(tasks.EngineOpts{
		Planner: planner.Options{
			Root:              s.root,
			Restructure:       s.restructure,
			OutputDir:         s.outputDir,
			RestructureFolder: conf.Convert.RestructureFolder,
		},
		Converter: converter,
		Workers:   s.threads,
		PostCheck: s.postCheck,
		Delete:    s.delete,
		DryRun:    s.dryRun,
		Stop:      stop,
		Remove:    r.remove,
		Logger:    logger,
		Options:   s.runOptions(),
	})
}

func (r *Runner) runPlain(ctx context.Context, engine *tasks.BatchEngine) (*models.RunReport, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		ui.Plain(r.output, progressCh)
		close(done)
	}()

	report, err := engine.Run(ctx, progressCh)
	close(progressCh)
	<-done
	return report, err
}

// finish prints the report, writes the report file and turns the outcome into the command error.
func (r *Runner) finish(report *models.RunReport, s convertSettings, logger *log.Logger) error {
	text, err := formatter.ExportToText(report)
	if err != nil {
		return err
	}
	r.writePlain("\n")
	if _, err := r.output.Write(text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if s.reportPath != "" {
		if err := formatter.WriteReport(report, s.reportFormat, s.reportPath); err != nil {
			return err
		}
		logger.Info("wrote report", "path", s.reportPath, "format", s.reportFormat)
		r.writePlain("Report written to %s\n", s.reportPath)
	}

	b := report.Batch
	switch {
	case report.Interrupted:
		return shared.ErrInterrupted
	case s.dryRun:
		if b.Failed > 0 {
			logger.Warn("dry run found unreadable files", "failed", b.Failed)
		}
		return nil
	case b.Failed > 0:
		return fmt.Errorf("%w: %d of %d file(s) failed", shared.ErrBatchFailed, b.Failed, b.Total())
	case report.PostCheck != nil && !report.PostCheck.Clean():
		return fmt.Errorf("%w: post-check did not pass", shared.ErrBatchFailed)
	}
	return nil
}
