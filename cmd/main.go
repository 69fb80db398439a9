package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// -v belongs to --verbose
func init() {
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		os.Exit(exitCode(err, runner.logger))
	}
}

// exitCode maps a command error to the process exit status. A failed batch has already printed its report.
func exitCode(err error, logger *log.Logger) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, shared.ErrInterrupted):
		logger.Warn("interrupted")
		return exitInterrupted
	case errors.Is(err, shared.ErrBatchFailed):
		logger.Error(err)
		return exitFailure
	default:
		logger.Errorf("application error: %v", err)
		return exitFailure
	}
}
