package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/encoder"
	"github.com/desertthunder/mp3cator/internal/shared"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer
	exec      shared.CommandRunner
	preflight PreflightFunc
	terminal  func(io.Writer) bool
	remove    func(string) error
}

// PreflightFunc checks that ffmpeg and ffprobe can run before any work starts.
type PreflightFunc func(ctx context.Context, runner shared.CommandRunner, ffmpeg, ffprobe string) error

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Logger    *log.Logger
	Output    io.Writer
	Exec      shared.CommandRunner
	Preflight PreflightFunc
	Terminal  func(io.Writer) bool // Reports whether the progress view can take over the writer
	Remove    func(string) error   // Source deletion, [os.Remove] by default
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Exec == nil {
		opts.Exec = shared.ExecRunner{}
	}
	if opts.Preflight == nil {
		opts.Preflight = checkDependencies
	}
	if opts.Terminal == nil {
		opts.Terminal = isTerminal
	}
	if opts.Remove == nil {
		opts.Remove = os.Remove
	}

	return &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		output:    opts.Output,
		exec:      opts.Exec,
		preflight: opts.Preflight,
		terminal:  opts.Terminal,
		remove:    opts.Remove,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){checkCommand, configCommand} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig runs before every command: it reads --config (or the default path when present) and sets the log level.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	explicit := cmd.IsSet("config")
	if path == "" {
		path = shared.DefaultConfigPath()
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", path)
		} else if explicit {
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
	}

	level, err := shared.ParseLogLevel(r.config.Logging.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// checkDependencies fails with [shared.ErrMissingDependency] when a binary is missing or ffmpeg cannot encode MP3.
func checkDependencies(ctx context.Context, runner shared.CommandRunner, ffmpeg, ffprobe string) error {
	statuses := encoder.CheckBinaries(ctx, runner, encoder.Requirements(ffmpeg, ffprobe))
	if err := encoder.MissingRequired(statuses); err != nil {
		return err
	}
	if !encoder.HasMP3Encoder(ctx, runner, statuses[0].Command) {
		return fmt.Errorf("%w: %s was built without libmp3lame", shared.ErrMissingDependency, ffmpeg)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
