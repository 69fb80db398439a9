package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mp3cator/internal/encoder"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/planner"
	"github.com/desertthunder/mp3cator/internal/shared"
	tu "github.com/desertthunder/mp3cator/internal/testing"
)

func library(t *testing.T, rels ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range rels {
		tu.MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), "ogg")
	}
	return root
}

func engine(root string, runner *tu.FakeRunner, mutate func(*EngineOpts)) *BatchEngine {
	opts := EngineOpts{
		Planner:   planner.Options{Root: root},
		Converter: encoder.NewConverter(encoder.Options{Runner: runner}),
		Workers:   2,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewBatchEngine(opts)
}

func TestBatchEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("converts in place and is idempotent", func(t *testing.T) {
		root := library(t, "Band/Album/01 - One.ogg", "Band/Album/02 - Two.ogg", "loose.ogg")
		runner := &tu.FakeRunner{}

		report, err := engine(root, runner, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Batch.Converted != 3 || report.Batch.Failed != 0 {
			t.Fatalf("unexpected batch %+v", report.Batch)
		}
		tu.AssertFileExists(t, filepath.Join(root, "Band", "Album", "01 - One.mp3"))
		tu.AssertFileExists(t, filepath.Join(root, "loose.mp3"))

		second := &tu.FakeRunner{}
		again, err := engine(root, second, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("second Run: %v", err)
		}
		if again.Batch.Skipped != 3 || again.Batch.Converted != 0 {
			t.Errorf("second run should skip everything, got %+v", again.Batch)
		}
		if len(second.Calls()) != 0 {
			t.Errorf("second run should not start any process, got %d calls", len(second.Calls()))
		}
	})

	t.Run("restructures into camelCase tree", func(t *testing.T) {
		root := library(t, "My Great Band/Best Of/07 - Song Title.ogg")
		report, err := engine(root, &tu.FakeRunner{}, func(o *EngineOpts) { o.Planner.Restructure = true }).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Mode != models.Restructured {
			t.Errorf("mode = %s", report.Mode)
		}
		tu.AssertFileExists(t, filepath.Join(root, "RS", "myGreatBand", "bestOf", "07SongTitle.mp3"))
	})

	t.Run("dry run creates nothing", func(t *testing.T) {
		root := library(t, "a/1.ogg", "a/2.ogg")
		runner := &tu.FakeRunner{}
		before := tu.CountFiles(t, root)

		report, err := engine(root, runner, func(o *EngineOpts) {
			o.DryRun = true
			o.PostCheck = true
			o.Delete = true
			o.Converter = encoder.NewConverter(encoder.Options{Runner: runner, DryRun: true})
		}).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Batch.WouldConvert != 2 || report.PostCheck != nil {
			t.Errorf("unexpected dry run report %+v", report)
		}
		if after := tu.CountFiles(t, root); after != before {
			t.Errorf("dry run changed the tree: %d files before, %d after", before, after)
		}
		if runner.EncodeCalls() != 0 {
			t.Error("ffmpeg must not run in dry run")
		}
	})

	t.Run("one failure blocks deletion", func(t *testing.T) {
		root := library(t, "a/1.ogg", "a/2.ogg", "a/3.ogg", "a/4.ogg", "a/5.ogg")
		runner := &tu.FakeRunner{Encode: func(_ context.Context, in, out string, _ []string) (string, error) {
			if strings.HasSuffix(in, "3.ogg") {
				return "Invalid data found when processing input", tu.ErrExit
			}
			return "", os.WriteFile(out, []byte("mp3"), 0644)
		}}

		report, err := engine(root, runner, func(o *EngineOpts) { o.PostCheck, o.Delete = true, true }).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.PostCheck == nil || len(report.PostCheck.Deleted) != 0 {
			t.Fatalf("nothing should be deleted: %+v", report.PostCheck)
		}
		if len(report.PostCheck.Unverified) != 1 || !strings.HasSuffix(report.PostCheck.Unverified[0].Path, "3.ogg") {
			t.Errorf("the failing file should be named: %+v", report.PostCheck.Unverified)
		}
		if tu.CountFiles(t, root) != 9 {
			t.Errorf("expected 5 sources and 4 outputs on disk, got %d files", tu.CountFiles(t, root))
		}
	})

	t.Run("clean batch deletes every source", func(t *testing.T) {
		root := library(t, "a/1.ogg", "a/2.ogg", "a/3.ogg", "a/4.ogg", "a/5.ogg")
		report, err := engine(root, &tu.FakeRunner{}, func(o *EngineOpts) { o.PostCheck, o.Delete = true, true }).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(report.PostCheck.Deleted) != 5 {
			t.Errorf("expected 5 deletions, got %d", len(report.PostCheck.Deleted))
		}
		for i := 1; i <= 5; i++ {
			tu.AssertNoFile(t, filepath.Join(root, "a", string(rune('0'+i))+".ogg"))
		}
	})

	t.Run("collisions abort before any work", func(t *testing.T) {
		root := library(t, "Band/My Song.ogg", "Band/my_song.ogg")
		runner := &tu.FakeRunner{}

		_, err := engine(root, runner, func(o *EngineOpts) { o.Planner.Restructure = true }).Run(ctx, nil)
		if !errors.Is(err, shared.ErrPathCollision) {
			t.Fatalf("expected collision, got %v", err)
		}
		if len(runner.Calls()) != 0 {
			t.Error("no process should run after a collision")
		}
	})

	t.Run("missing root is a discovery error", func(t *testing.T) {
		_, err := engine(filepath.Join(t.TempDir(), "nope"), &tu.FakeRunner{}, nil).Run(ctx, nil)
		if !errors.Is(err, shared.ErrDiscovery) {
			t.Errorf("expected discovery error, got %v", err)
		}
	})

	t.Run("custom output dir inside the root is not rescanned", func(t *testing.T) {
		root := library(t, "a/1.ogg", "out/a/stray.ogg")
		out := filepath.Join(root, "out")

		report, err := engine(root, &tu.FakeRunner{}, func(o *EngineOpts) { o.Planner.OutputDir = out }).Run(ctx, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Batch.Total() != 1 {
			t.Errorf("expected only a/1.ogg, got %d results", report.Batch.Total())
		}
		tu.AssertFileExists(t, filepath.Join(out, "a", "1.mp3"))
	})

	t.Run("progress reaches done", func(t *testing.T) {
		root := library(t, "a.ogg", "b.ogg")
		prog := make(chan ProgressUpdate, 64)
		if _, err := engine(root, &tu.FakeRunner{}, nil).Run(ctx, prog); err != nil {
			t.Fatalf("Run: %v", err)
		}
		close(prog)

		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		if len(phases) == 0 || phases[0] != Discover || phases[len(phases)-1] != Done {
			t.Errorf("unexpected phase sequence %v", phases)
		}
	})
}
