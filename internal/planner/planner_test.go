package planner

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
)

func source(root, rel string) models.SourceFile {
	rel = filepath.FromSlash(rel)
	return models.SourceFile{AbsPath: filepath.Join(root, rel), RelPath: rel}
}

func TestCamelCase(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"My Great Band", "myGreatBand"},
		{"AC/DC", "acDc"},
		{"the_BEST-of  it", "theBestOfIt"},
		{"Beyoncé", "beyonce"},
		{"Sigur Rós", "sigurRos"},
		{"2Pac", "2pac"},
		{"Мой Бэнд", "мойБэнд"},
		{"Ёлка", "ёлка"},
		{"  ", ""},
		{"!!!", ""},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := CamelCase(tt.in); got != tt.want {
				t.Errorf("CamelCase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompactTrackName(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"07 - Song Title", "07SongTitle"},
		{"01 - My Song", "01MySong"},
		{"1 Song", "01Song"},
		{"01. Intro", "01Intro"},
		{"3_outro track", "03OutroTrack"},
		{"12-Finale", "12Finale"},
		{"100 - Bonus", "100Bonus"},
		{"01", "01"},
		{"Song Title", "songTitle"},
		{"1999 Party", "1999Party"},
		{"---", "untitled"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := CompactTrackName(tt.in); got != tt.want {
				t.Errorf("CompactTrackName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitTrackNumber(t *testing.T) {
	num, rest, ok := SplitTrackNumber("07 - Song Title")
	if !ok || num != 7 || rest != "Song Title" {
		t.Errorf("got %d %q %v", num, rest, ok)
	}

	if _, _, ok := SplitTrackNumber("Song Title"); ok {
		t.Error("expected no track number")
	}
}

func TestDestination(t *testing.T) {
	root := filepath.FromSlash("/music")

	t.Run("in place", func(t *testing.T) {
		got := Destination(source(root, "Band/Album/01 - Song.ogg"), Options{Root: root})
		want := filepath.FromSlash("/music/Band/Album/01 - Song.mp3")
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("upper case extension is replaced", func(t *testing.T) {
		got := Destination(source(root, "a/Track.OGG"), Options{Root: root})
		if got != filepath.FromSlash("/music/a/Track.mp3") {
			t.Errorf("got %s", got)
		}
	})

	t.Run("restructured", func(t *testing.T) {
		got := Destination(source(root, "My Great Band/Best Of/07 - Song Title.ogg"), Options{Root: root, Restructure: true})
		want := filepath.FromSlash("/music/RS/myGreatBand/bestOf/07SongTitle.mp3")
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("restructured with custom folder and symbol-only dir", func(t *testing.T) {
		got := Destination(source(root, "???/x.ogg"), Options{Root: root, Restructure: true, RestructureFolder: "Out"})
		want := filepath.FromSlash("/music/Out/unknown/x.mp3")
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("restructured file at root", func(t *testing.T) {
		got := Destination(source(root, "1 Song.ogg"), Options{Root: root, Restructure: true})
		if got != filepath.FromSlash("/music/RS/01Song.mp3") {
			t.Errorf("got %s", got)
		}
	})

	t.Run("output dir overrides restructure", func(t *testing.T) {
		opts := Options{Root: root, Restructure: true, OutputDir: filepath.FromSlash("/out")}
		if opts.Mode() != models.CustomDir {
			t.Fatalf("expected custom-dir mode, got %s", opts.Mode())
		}
		got := Destination(source(root, "Band/Album/01 - Song.ogg"), opts)
		want := filepath.FromSlash("/out/Band/Album/01 - Song.mp3")
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		src := source(root, "Émilie Simon/Végétal/03 - Fleur de Saison.ogg")
		opts := Options{Root: root, Restructure: true}
		first := Destination(src, opts)
		for i := 0; i < 10; i++ {
			if got := Destination(src, opts); got != first {
				t.Fatalf("run %d: %s != %s", i, got, first)
			}
		}
		if !strings.HasSuffix(first, filepath.FromSlash("emilieSimon/vegetal/03FleurDeSaison.mp3")) {
			t.Errorf("unexpected path %s", first)
		}
	})
}

func TestOutputRoots(t *testing.T) {
	root := filepath.FromSlash("/music")
	if roots := (Options{Root: root}).OutputRoots(); len(roots) != 0 {
		t.Errorf("in-place should have no output roots, got %v", roots)
	}
	if roots := (Options{Root: root, Restructure: true}).OutputRoots(); len(roots) != 1 || roots[0] != filepath.Join(root, "RS") {
		t.Errorf("unexpected restructure roots %v", roots)
	}
	if roots := (Options{Root: root, OutputDir: filepath.FromSlash("/music/out/")}).OutputRoots(); len(roots) != 1 || roots[0] != filepath.FromSlash("/music/out") {
		t.Errorf("unexpected custom roots %v", roots)
	}
}

func TestPlanBatch(t *testing.T) {
	root := filepath.FromSlash("/music")

	t.Run("keeps order and indexes", func(t *testing.T) {
		files := []models.SourceFile{source(root, "b.ogg"), source(root, "a.ogg"), source(root, "c/d.ogg")}
		tasks, err := PlanBatch(files, Options{Root: root})
		if err != nil {
			t.Fatalf("PlanBatch: %v", err)
		}
		for i, task := range tasks {
			if task.Index != i || task.Source.RelPath != files[i].RelPath {
				t.Errorf("task %d out of order: %+v", i, task)
			}
			if task.Mode != models.InPlace {
				t.Errorf("task %d mode = %s", i, task.Mode)
			}
		}
	})

	t.Run("detects collisions before any work", func(t *testing.T) {
		files := []models.SourceFile{
			source(root, "Band/My Song.ogg"),
			source(root, "Band/my-song.ogg"),
			source(root, "Band/Other.ogg"),
		}
		_, err := PlanBatch(files, Options{Root: root, Restructure: true})
		if !errors.Is(err, shared.ErrPathCollision) {
			t.Fatalf("expected collision error, got %v", err)
		}

		var pce *shared.PathCollisionError
		if !errors.As(err, &pce) {
			t.Fatalf("expected *PathCollisionError, got %T", err)
		}
		dest := filepath.FromSlash("/music/RS/band/mySong.mp3")
		if len(pce.Collisions) != 1 || len(pce.Collisions[dest]) != 2 {
			t.Errorf("unexpected collisions %v", pce.Collisions)
		}
	})
}
