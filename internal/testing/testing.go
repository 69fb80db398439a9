// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter passes the first maxWrites writes to target and fails every one after that.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// ErrExit stands in for a non-zero exit status from a fake process.
var ErrExit = errors.New("exit status 1")

// FakeRunner is a test double for [shared.CommandRunner] that imitates ffprobe and ffmpeg.
//
// ffprobe calls are answered by Info with the input path. ffmpeg calls go to Encode with the first -i input and the output path (last argument);
// a nil Encode writes a small fake MP3 to the output.
type FakeRunner struct {
	Info   func(path string) ([]byte, error)
	Encode func(ctx context.Context, input, output string, args []string) (stderr string, err error)

	mu    sync.Mutex
	calls [][]string
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if strings.HasPrefix(filepath.Base(name), "ffprobe") {
		if f.Info == nil {
			return []byte(`{"streams":[],"format":{}}`), nil, nil
		}
		out, err := f.Info(args[len(args)-1])
		if err != nil {
			return nil, []byte(err.Error()), err
		}
		return out, nil, nil
	}

	input, output := "", args[len(args)-1]
	for i, a := range args {
		if a == "-i" && i+1 < len(args) {
			input = args[i+1]
			break
		}
	}

	if f.Encode != nil {
		stderr, err := f.Encode(ctx, input, output, args)
		return nil, []byte(stderr), err
	}
	if err := os.WriteFile(output, []byte("ID3fake-mp3"), 0644); err != nil {
		return nil, []byte(err.Error()), err
	}
	return nil, nil, nil
}

// Calls returns every recorded invocation as name followed by args.
func (f *FakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// EncodeCalls counts invocations of anything other than ffprobe.
func (f *FakeRunner) EncodeCalls() int {
	n := 0
	for _, c := range f.Calls() {
		if !strings.HasPrefix(filepath.Base(c[0]), "ffprobe") {
			n++
		}
	}
	return n
}

// MustWriteFile creates parent directories and writes body to path.
func MustWriteFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// CountFiles returns the number of regular files under root.
func CountFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk %s: %v", root, err)
	}
	return n
}
