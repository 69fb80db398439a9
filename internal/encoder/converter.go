// package encoder turns one planned task into an MP3 by running ffmpeg.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
	"github.com/desertthunder/mp3cator/internal/tags"
	"golang.org/x/time/rate"
)

const (
	DefaultBitrate = "320k"
	stderrLines    = 5
)

// TagReader is satisfied by [tags.Extractor].
type TagReader interface {
	Extract(ctx context.Context, path string) (*tags.Metadata, error)
}

// Options configures a [Converter].
type Options struct {
	Runner        shared.CommandRunner
	Tags          TagReader
	FFmpeg        string
	Bitrate       string
	DryRun        bool
	InferTags     bool    // Fill missing artist/album/title/track from the folder layout
	MaxLaunchRate float64 // ffmpeg starts per second across all callers; 0 is unlimited
	Logger        *log.Logger
}

// Converter runs one ffmpeg process per task. It is safe for concurrent use.
type Converter struct {
	runner    shared.CommandRunner
	tags      TagReader
	bin       string
	bitrate   string
	dryRun    bool
	inferTags bool
	limiter   *rate.Limiter
	logger    *log.Logger
}

// NewConverter creates a Converter with the real ffmpeg and ffprobe as defaults.
func NewConverter(opts Options) *Converter {
	if opts.Runner == nil {
		opts.Runner = shared.ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Tags == nil {
		opts.Tags = tags.NewExtractor(tags.ExtractorOpts{Runner: opts.Runner, Logger: opts.Logger})
	}
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.Bitrate == "" {
		opts.Bitrate = DefaultBitrate
	}

	var limiter *rate.Limiter
	if opts.MaxLaunchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxLaunchRate), 1)
	}

	return &Converter{
		runner:    opts.Runner,
		tags:      opts.Tags,
		bin:       opts.FFmpeg,
		bitrate:   opts.Bitrate,
		dryRun:    opts.DryRun,
		inferTags: opts.InferTags,
		limiter:   limiter,
		logger:    opts.Logger,
	}
}

// Convert processes task and always returns a result; it never panics on a bad file.
func (c *Converter) Convert(ctx context.Context, task models.ConversionTask) models.ConversionResult {
	start := time.Now()
	res := c.convert(ctx, task)
	res.Task = task
	res.Elapsed = time.Since(start)
	return res
}

func (c *Converter) convert(ctx context.Context, task models.ConversionTask) models.ConversionResult {
	if size, ok := existing(task.Dest); ok {
		return models.ConversionResult{Outcome: models.SkippedExists, OutputSize: size}
	}

	var res models.ConversionResult
	md, err := c.tags.Extract(ctx, task.Source.AbsPath)
	if err != nil {
		if ctx.Err() != nil {
			return failed("cancelled before start")
		}
		res.Warning = err.Error()
		c.logger.Warn("converting without tags", "file", task.Source.RelPath, "err", err)
		md = &tags.Metadata{Tags: models.Tags{}}
	} else if md.Warning != "" {
		res.Warning = md.Warning
	}

	tagSet := md.Tags
	if c.inferTags {
		tagSet = tagSet.Clone()
		for k, v := range task.Source.InferredTags {
			if _, ok := tagSet[k]; !ok {
				tagSet[k] = v
			}
		}
	}
	res.TagCount = len(tagSet)
	res.HasArtwork = md.Artwork != nil

	if c.dryRun {
		res.Outcome = models.WouldConvert
		return res
	}

	if err := os.MkdirAll(filepath.Dir(task.Dest), 0755); err != nil {
		r := failed(fmt.Sprintf("create output directory: %v", err))
		r.Warning = res.Warning
		return r
	}

	part := PartPath(task.Dest)
	_ = os.Remove(part)
	defer os.Remove(part)

	in := ArgsInput{Source: task.Source.AbsPath, Output: part, Bitrate: c.bitrate, Tags: tagSet, ArtStream: -1}
	cleanup, err := c.attachArtwork(&in, md.Artwork)
	if err != nil {
		c.logger.Warn("skipping artwork", "file", task.Source.RelPath, "err", err)
		res.HasArtwork = false
	}
	defer cleanup()

	stderr, err := c.run(ctx, BuildArgs(in))
	if err != nil && ctx.Err() == nil && res.HasArtwork {
		c.logger.Warn("retrying without artwork", "file", task.Source.RelPath, "stderr", TailLines(stderr, 1))
		in.ArtStream, in.ArtImagePath = -1, ""
		res.HasArtwork = false
		_ = os.Remove(part)
		stderr, err = c.run(ctx, BuildArgs(in))
	}

	if err != nil {
		if ctx.Err() != nil {
			return failed("cancelled: encoder was stopped")
		}
		cerr := &shared.ConversionError{Path: task.Source.AbsPath, Stderr: TailLines(stderr, stderrLines), Err: err}
		c.logger.Debug("ffmpeg failed", "file", task.Source.RelPath, "stderr", stderr)
		r := failed(cerr.Error())
		r.Warning = res.Warning
		return r
	}

	size, ok := existing(part)
	if !ok {
		r := failed("ffmpeg reported success but wrote no output")
		r.Warning = res.Warning
		return r
	}
	if err := os.Rename(part, task.Dest); err != nil {
		r := failed(fmt.Sprintf("move output into place: %v", err))
		r.Warning = res.Warning
		return r
	}

	res.Outcome = models.Succeeded
	res.OutputSize = size
	return res
}

func (c *Converter) run(ctx context.Context, args []string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	_, stderr, err := c.runner.Run(ctx, c.bin, args...)
	return string(stderr), err
}

// attachArtwork fills the artwork fields of in. The returned cleanup is always safe to call.
func (c *Converter) attachArtwork(in *ArgsInput, art *tags.Artwork) (func(), error) {
	noop := func() {}
	switch {
	case art == nil:
		return noop, nil
	case art.FromStream:
		in.ArtStream = art.StreamIndex
		return noop, nil
	case art.Path != "":
		in.ArtImagePath = art.Path
		return noop, nil
	case art.Picture != nil:
		f, err := os.CreateTemp("", "mp3cator-art-*"+art.Picture.Ext())
		if err != nil {
			return noop, err
		}
		name := f.Name()
		cleanup := func() { os.Remove(name) }
		if _, err := f.Write(art.Picture.Data); err != nil {
			f.Close()
			cleanup()
			return noop, err
		}
		if err := f.Close(); err != nil {
			cleanup()
			return noop, err
		}
		in.ArtImagePath = name
		return cleanup, nil
	default:
		return noop, errors.New("empty artwork")
	}
}

// PartPath is the hidden sibling ffmpeg writes to before the result is renamed onto dest.
func PartPath(dest string) string {
	dir, base := filepath.Split(dest)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "."+stem+".part"+filepath.Ext(base))
}

// TailLines returns the last n non-empty lines of s joined by " | ".
func TailLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func existing(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return 0, false
	}
	return info.Size(), true
}

func failed(msg string) models.ConversionResult {
	return models.ConversionResult{Outcome: models.Failed, Error: msg}
}
