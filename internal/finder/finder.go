// package finder walks a music folder and yields OGG sources for conversion.
package finder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/planner"
	"github.com/desertthunder/mp3cator/internal/shared"
)

// SourceExt is the only extension accepted, compared case-insensitively.
const SourceExt = ".ogg"

// Status classifies a discovered candidate.
type Status int

const (
	Pending          Status = iota // Needs conversion
	AlreadyConverted               // Destination exists and is non-empty
	Unreadable                     // Could not be read; reported as a failure
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case AlreadyConverted:
		return "already-converted"
	case Unreadable:
		return "unreadable"
	default:
		return ""
	}
}

// Candidate is one discovered file and what discovery concluded about it.
type Candidate struct {
	Source models.SourceFile
	Status Status
	Dest   string // Destination computed during discovery
	Err    error  // Set when Status is Unreadable
}

// DestinationFunc computes the output path of a source.
type DestinationFunc func(models.SourceFile) string

// Finder discovers OGG files under Root.
type Finder struct {
	root   string
	dest   DestinationFunc
	prune  map[string]bool
	logger *log.Logger
}

// New creates a Finder. Directories listed in prune (usually [planner.Options.OutputRoots]) are never entered.
func New(root string, dest DestinationFunc, prune []string, logger *log.Logger) *Finder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	p := make(map[string]bool, len(prune))
	for _, dir := range prune {
		p[filepath.Clean(dir)] = true
	}
	return &Finder{root: filepath.Clean(root), dest: dest, prune: p, logger: logger}
}

// Root returns the cleaned scan root.
func (f *Finder) Root() string { return f.root }

// Walk returns a lazy, restartable sequence of candidates in lexical order.
//
// A non-nil error in the sequence is fatal and ends it: a [shared.DiscoveryError] for a bad root, or the context error on cancellation.
// Problems with single files or subdirectories are yielded as [Unreadable] candidates instead.
func (f *Finder) Walk(ctx context.Context) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		info, err := os.Stat(f.root)
		if err != nil {
			yield(Candidate{}, &shared.DiscoveryError{Root: f.root, Err: err})
			return
		}
		if !info.IsDir() {
			yield(Candidate{}, &shared.DiscoveryError{Root: f.root, Err: errors.New("not a directory")})
			return
		}

		stopped := false
		walkErr := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
			if cerr := ctx.Err(); cerr != nil {
				if !stopped {
					stopped = true
					yield(Candidate{}, cerr)
				}
				return fs.SkipAll
			}

			if err != nil {
				if path == f.root {
					return err
				}
				f.logger.Warn("cannot read path", "path", path, "err", err)
				if !yield(f.unreadable(path, err), nil) {
					stopped = true
					return fs.SkipAll
				}
				return nil
			}

			if d.IsDir() {
				if path != f.root && f.prune[path] {
					f.logger.Debug("skipping output directory", "path", path)
					return fs.SkipDir
				}
				return nil
			}

			if !strings.EqualFold(filepath.Ext(path), SourceExt) {
				return nil
			}

			if !yield(f.candidate(path, d), nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})

		if walkErr != nil && !stopped {
			yield(Candidate{}, &shared.DiscoveryError{Root: f.root, Err: walkErr})
		}
	}
}

// Collect drains [Finder.Walk] into a slice.
func (f *Finder) Collect(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	for c, err := range f.Walk(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Finder) candidate(path string, d fs.DirEntry) Candidate {
	src := models.SourceFile{AbsPath: path, RelPath: f.rel(path)}
	src.InferredTags = InferTags(src.RelPath)

	info, err := d.Info()
	if err != nil {
		return Candidate{Source: src, Status: Unreadable, Err: err}
	}
	if !info.Mode().IsRegular() {
		if info, err = os.Stat(path); err != nil || !info.Mode().IsRegular() {
			return Candidate{Source: src, Status: Unreadable, Err: fmt.Errorf("not a regular file")}
		}
	}
	src.Size = info.Size()

	fh, err := os.Open(path)
	if err != nil {
		return Candidate{Source: src, Status: Unreadable, Err: err}
	}
	fh.Close()

	c := Candidate{Source: src, Status: Pending}
	if f.dest == nil {
		return c
	}
	c.Dest = f.dest(src)
	if out, err := os.Stat(c.Dest); err == nil && out.Mode().IsRegular() && out.Size() > 0 {
		c.Status = AlreadyConverted
	}
	return c
}

func (f *Finder) unreadable(path string, err error) Candidate {
	src := models.SourceFile{AbsPath: path, RelPath: f.rel(path)}
	return Candidate{Source: src, Status: Unreadable, Err: err}
}

func (f *Finder) rel(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}

// InferTags guesses artist, album, track and title from an artist/album/NN - title layout.
func InferTags(rel string) models.Tags {
	tags := models.Tags{}
	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	if num, rest, ok := planner.SplitTrackNumber(stem); ok {
		tags["track"] = planner.PadNumber(num, 2)
		if rest != "" {
			tags["title"] = rest
		}
	} else if strings.TrimSpace(stem) != "" {
		tags["title"] = strings.TrimSpace(stem)
	}

	dir := filepath.Dir(rel)
	if dir == "." {
		return tags
	}
	parts := strings.Split(dir, string(filepath.Separator))
	tags["album"] = parts[len(parts)-1]
	if len(parts) > 1 {
		tags["artist"] = parts[len(parts)-2]
	}
	return tags
}
