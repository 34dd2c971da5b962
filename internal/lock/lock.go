// Package lock provides an advisory file lock shared by every shiftbell process
// that uses the same config directory.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 50 * time.Millisecond

// FileLock is held by at most one process at a time, and by one goroutine within
// the process. It is not reentrant.
type FileLock struct {
	fl  *flock.Flock
	sem chan struct{}
}

func New(path string) *FileLock {
	return &FileLock{fl: flock.New(path), sem: make(chan struct{}, 1)}
}

func (l *FileLock) Path() string {
	return l.fl.Path()
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0700); err != nil {
		<-l.sem
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil || !ok {
		<-l.sem
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("failed to acquire %s: %w", l.fl.Path(), err)
	}
	return nil
}

func (l *FileLock) Unlock() error {
	defer func() { <-l.sem }()
	return l.fl.Unlock()
}
