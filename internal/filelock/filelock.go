// Package filelock guards a destination directory against concurrent shelve
// runs. Two processes placing into the same tree would race each other's
// duplicate checks, so the pipeline takes an exclusive advisory lock on a
// lock file in the destination root before mutating anything.
package filelock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file created in the destination root. It exists only
// for the lifetime of the flock; no run state is recorded in it.
const LockName = ".shelve.lock"

// RunLock holds the exclusive lock for one run against one destination.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// Acquire takes the destination lock without blocking. It fails immediately
// when another run already holds the lock rather than queueing behind it.
func Acquire(destRoot string) (*RunLock, error) {
	path := filepath.Join(destRoot, LockName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot lock destination %s: %w", destRoot, err)
	}
	if !ok {
		return nil, fmt.Errorf("destination %s is in use by another shelve run", destRoot)
	}
	return &RunLock{flock: fl, path: path}, nil
}

// Release drops the lock. Safe to call on a nil lock (dry-run takes none).
func (l *RunLock) Release() error {
	if l == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("cannot release lock %s: %w", l.path, err)
	}
	return nil
}
