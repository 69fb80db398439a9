package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes key value pairs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc")
		logger.Info("converted", "file", "a.ogg")

		out := buf.String()
		if !strings.Contains(out, "converted") || !strings.Contains(out, "file=a.ogg") || !strings.Contains(out, "run=abc") {
			t.Errorf("unexpected log output: %q", out)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if ll, err := ParseLogLevel(""); err != nil || ll != log.InfoLevel {
			t.Errorf("empty level: got %v, %v", ll, err)
		}
		if ll, err := ParseLogLevel("DEBUG"); err != nil || ll != log.DebugLevel {
			t.Errorf("DEBUG level: got %v, %v", ll, err)
		}
		if _, err := ParseLogLevel("loud"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "run.log")
		logger, f, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger: %v", err)
		}
		logger.Warn("hello")
		f.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		if !strings.Contains(string(data), "hello") {
			t.Errorf("log file missing entry: %q", data)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if len(a) != 36 || a == b {
		t.Errorf("expected distinct uuids, got %q and %q", a, b)
	}
}

func TestRunLock(t *testing.T) {
	root := t.TempDir()

	first, err := AcquireRunLock(root)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := AcquireRunLock(root); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked for second lock, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, err := AcquireRunLock(root)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again.Release()

	if LockPath(root) == LockPath(t.TempDir()) {
		t.Error("different roots should use different lock files")
	}
}

func TestErrors(t *testing.T) {
	t.Run("typed errors match sentinels", func(t *testing.T) {
		cause := errors.New("boom")
		cases := []struct {
			err      error
			sentinel error
		}{
			{&DiscoveryError{Root: "/x", Err: cause}, ErrDiscovery},
			{&PathCollisionError{Collisions: map[string][]string{"a.mp3": {"a.ogg", "A.ogg"}}}, ErrPathCollision},
			{&TagExtractionError{Path: "a.ogg", Err: cause}, ErrTagExtraction},
			{&ConversionError{Path: "a.ogg", Err: cause}, ErrConversion},
			{&VerificationError{Path: "a.mp3", Reason: "missing"}, ErrVerification},
			{&DeletionError{Path: "a.ogg", Err: cause}, ErrDeletion},
		}
		for _, c := range cases {
			if !errors.Is(c.err, c.sentinel) {
				t.Errorf("%T should match %v", c.err, c.sentinel)
			}
		}
	})

	t.Run("collision message names every source", func(t *testing.T) {
		err := &PathCollisionError{Collisions: map[string][]string{
			"/m/RS/x/song.mp3": {"/m/x/Song.ogg", "/m/x/song.ogg"},
		}}
		msg := err.Error()
		for _, want := range []string{"/m/RS/x/song.mp3", "/m/x/Song.ogg", "/m/x/song.ogg"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message %q missing %q", msg, want)
			}
		}
	})
}
