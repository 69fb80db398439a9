// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/mp3cator/internal/formatter"
	"github.com/urfave/cli/v3"
)

// app builds the root command. Converting is the root action so the folder can be passed directly.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "mp3cator",
		Usage:     "Batch convert OGG files to tagged MP3 with ffmpeg",
		Version:   "0.1.0",
		ArgsUsage: "<folder_path>",
		Flags:     convertFlags(),
		Before:    r.loadConfig,
		Action:    r.Convert,
		Commands:  r.register(),
	}
}

func convertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (default: ~/.config/mp3cator/config.toml when present)",
		},
		&cli.StringFlag{
			Name:    "bitrate",
			Aliases: []string{"b"},
			Usage:   "Constant MP3 bitrate: 320, 320k or 320kbps (default: 320k)",
		},
		&cli.IntFlag{
			Name:    "threads",
			Aliases: []string{"t"},
			Usage:   "Concurrent encoder processes (default: one per CPU core)",
		},
		&cli.BoolFlag{
			Name:  "restructure",
			Usage: "Write outputs under RS/ with camelCased directories and compacted file names",
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Mirror the source tree under this directory; overrides --restructure",
		},
		&cli.BoolFlag{
			Name:  "post-check",
			Usage: "Verify every output exists and is non-empty after the batch",
		},
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "Delete sources after a clean post-check (requires --post-check)",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "Plan and read tags without writing or deleting anything",
		},
		&cli.BoolFlag{
			Name:  "infer-tags",
			Usage: "Fill missing artist/album/track/title from the folder layout",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Also write the final report to this file",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report file format: " + strings.Join(formatter.Formats, ", "),
		},
		&cli.BoolFlag{
			Name:  "no-tui",
			Usage: "Print progress as plain lines even on a terminal",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Log file used while the progress view is shown",
		},
	}
}

// checkCommand lists ffmpeg/ffprobe availability
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Check that ffmpeg and ffprobe are installed and can encode MP3",
		Action: r.Check,
	}
}

// configCommand handles the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file operations",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file (default: ~/.config/mp3cator/config.toml)",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration as TOML",
				Action: r.ConfigShow,
			},
		},
	}
}
