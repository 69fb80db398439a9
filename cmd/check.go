package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/mp3cator/internal/encoder"
	"github.com/desertthunder/mp3cator/internal/formatter"
	"github.com/desertthunder/mp3cator/internal/shared"
	"github.com/urfave/cli/v3"
)

// Check prints a dependency table and fails when a required binary is unusable.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	tools := r.config.Tools
	statuses := encoder.CheckBinaries(ctx, r.exec, encoder.Requirements(tools.FFmpeg, tools.FFprobe))

	mp3 := false
	if len(statuses) > 0 && statuses[0].Available {
		mp3 = encoder.HasMP3Encoder(ctx, r.exec, statuses[0].Command)
	}

	r.writePlainHeader("Dependencies")
	r.writePlain("%s\n", renderChecks(statuses, mp3))

	if err := encoder.MissingRequired(statuses); err != nil {
		return err
	}
	if !mp3 {
		return fmt.Errorf("%w: %s was built without libmp3lame", shared.ErrMissingDependency, tools.FFmpeg)
	}
	r.writePlain("All dependencies available\n")
	return nil
}

func renderChecks(statuses []encoder.Status, mp3 bool) string {
	rows := make([][]string, 0, len(statuses)+1)
	for _, s := range statuses {
		state, detail := "✓ available", s.Version
		if !s.Available {
			state, detail = "✗ missing", s.Detail
		}
		rows = append(rows, []string{s.Name, state, s.Command, detail})
	}

	state := "✗ missing"
	if mp3 {
		state = "✓ available"
	}
	rows = append(rows, []string{"libmp3lame", state, "ffmpeg -encoders", "MP3 encoder inside ffmpeg"})

	return formatter.Table([]string{"Dependency", "Status", "Command", "Detail"}, rows)
}

// ConfigInit writes the example config to --path or the default location.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = shared.DefaultConfigPath()
	}
	if path == "" {
		return fmt.Errorf("%w: no user config directory, pass --path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("created config", "path", path)
	r.writePlain("Created config at %s\n", path)
	return nil
}

// ConfigShow prints the effective configuration after loading and validation.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if err := toml.NewEncoder(r.output).Encode(r.config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
