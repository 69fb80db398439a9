// package planner maps discovered sources to destination paths.
package planner

import (
	"path/filepath"
	"strings"

	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
)

const (
	DefaultExt               = ".mp3"
	DefaultRestructureFolder = "RS"
	unknownDir               = "unknown"
)

// Options selects the output mode. Root and OutputDir must be absolute.
type Options struct {
	Root              string
	Restructure       bool
	OutputDir         string // Overrides Restructure when set
	RestructureFolder string // Defaults to "RS"
	Ext               string // Defaults to ".mp3"
}

// Mode resolves the active [models.OutputMode]: output dir, then restructure, then in place.
func (o Options) Mode() models.OutputMode {
	switch {
	case o.OutputDir != "":
		return models.CustomDir
	case o.Restructure:
		return models.Restructured
	default:
		return models.InPlace
	}
}

func (o Options) folder() string {
	if o.RestructureFolder == "" {
		return DefaultRestructureFolder
	}
	return o.RestructureFolder
}

func (o Options) ext() string {
	if o.Ext == "" {
		return DefaultExt
	}
	return o.Ext
}

// RestructureRoot returns the directory restructured output is written under.
func (o Options) RestructureRoot() string {
	return filepath.Join(o.Root, o.folder())
}

// OutputRoots lists directories that only hold output for the active mode and must not be scanned for sources.
func (o Options) OutputRoots() []string {
	switch o.Mode() {
	case models.CustomDir:
		return []string{filepath.Clean(o.OutputDir)}
	case models.Restructured:
		return []string{o.RestructureRoot()}
	default:
		return nil
	}
}

// Destination computes the output path for src. It is pure: equal inputs always give equal paths.
func Destination(src models.SourceFile, opts Options) string {
	stem := strings.TrimSuffix(src.RelPath, filepath.Ext(src.RelPath))

	switch opts.Mode() {
	case models.CustomDir:
		return filepath.Join(opts.OutputDir, stem+opts.ext())
	case models.Restructured:
		parts := []string{opts.RestructureRoot()}
		if dir := filepath.Dir(src.RelPath); dir != "." {
			for _, d := range strings.Split(dir, string(filepath.Separator)) {
				parts = append(parts, restructuredDir(d))
			}
		}
		parts = append(parts, CompactTrackName(filepath.Base(stem))+opts.ext())
		return filepath.Join(parts...)
	default:
		return filepath.Join(opts.Root, stem+opts.ext())
	}
}

func restructuredDir(name string) string {
	if out := CamelCase(name); out != "" {
		return out
	}
	return unknownDir
}

// PlanBatch builds one task per source in order. Two sources sharing a destination fail the whole batch with a [shared.PathCollisionError].
func PlanBatch(files []models.SourceFile, opts Options) ([]models.ConversionTask, error) {
	mode := opts.Mode()
	tasks := make([]models.ConversionTask, 0, len(files))
	owners := make(map[string][]string, len(files))

	for i, f := range files {
		dest := Destination(f, opts)
		owners[dest] = append(owners[dest], f.AbsPath)
		tasks = append(tasks, models.ConversionTask{Index: i, Source: f, Dest: dest, Mode: mode})
	}

	collisions := map[string][]string{}
	for dest, srcs := range owners {
		if len(srcs) > 1 {
			collisions[dest] = srcs
		}
	}
	if len(collisions) > 0 {
		return nil, &shared.PathCollisionError{Collisions: collisions}
	}
	return tasks, nil
}
