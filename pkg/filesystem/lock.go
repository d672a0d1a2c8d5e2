package filesystem

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when a lock is still held by someone else once the
// timeout expires.
var ErrLocked = stderrors.New("locked by another process")

const lockRetry = 50 * time.Millisecond

// Lock takes an exclusive flock on path, creating it and its directory.
func (o *osFS) Lock(ctx context.Context, path string, timeout time.Duration) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	fl := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := fl.TryLockContext(lockCtx, lockRetry)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil && stderrors.Is(err, context.DeadlineExceeded):
		return nil, ErrLocked
	case err != nil:
		return nil, err
	case !ok:
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}

// Lock on an afero filesystem is a no-op: nothing outside the process can
// see the files, and in-process callers serialize themselves.
func (a *aferoFS) Lock(context.Context, string, time.Duration) (func() error, error) {
	return func() error { return nil }, nil
}
