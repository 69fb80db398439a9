package shared

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an advisory lock that keeps two runs off the same music folder.
type RunLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file for root, kept in the OS temp directory so nothing is written into the library.
func LockPath(root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(os.TempDir(), "mp3cator-"+hex.EncodeToString(sum[:8])+".lock")
}

// AcquireRunLock takes the lock for root without blocking. It fails with [ErrLocked] when another process holds it.
func AcquireRunLock(root string) (*RunLock, error) {
	path := LockPath(root)
	l := flock.New(path)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &RunLock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (r *RunLock) Path() string { return r.path }

// Release unlocks the lock file.
func (r *RunLock) Release() error {
	if r == nil || r.lock == nil {
		return nil
	}
	if err := r.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", r.path, err)
	}
	return nil
}
