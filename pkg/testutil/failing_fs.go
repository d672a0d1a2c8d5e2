package testutil

import (
	"context"
	"io/fs"
	"sync"
	"syscall"
	"time"

	"github.com/arthur-debert/devsync/pkg/types"
)

// FailingFS wraps a filesystem and fails writes once a budget of matching
// writes is spent, and removals of paths selected by FailRemove. Reads and
// other operations pass through.
type FailingFS struct {
	types.FS

	// Match selects the writes that count; nil matches every write.
	Match func(name string) bool
	// Allow is how many matching writes succeed before failures start.
	Allow int
	// Err is returned for failed writes; defaults to ENOSPC.
	Err error
	// FailRemove selects paths whose removal fails with EACCES.
	FailRemove func(name string) bool

	mu     sync.Mutex
	writes int
	failed []string
}

// NewFailingFS fails every matching write after the first allow.
func NewFailingFS(base types.FS, allow int, match func(string) bool) *FailingFS {
	return &FailingFS{FS: base, Allow: allow, Match: match}
}

func (f *FailingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if f.Match == nil || f.Match(name) {
		f.mu.Lock()
		f.writes++
		fail := f.writes > f.Allow
		if fail {
			f.failed = append(f.failed, name)
		}
		f.mu.Unlock()
		if fail {
			err := f.Err
			if err == nil {
				err = syscall.ENOSPC
			}
			return &fs.PathError{Op: "write", Path: name, Err: err}
		}
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FailingFS) Remove(name string) error {
	if f.FailRemove != nil && f.FailRemove(name) {
		f.mu.Lock()
		f.failed = append(f.failed, name)
		f.mu.Unlock()
		return &fs.PathError{Op: "remove", Path: name, Err: syscall.EACCES}
	}
	return f.FS.Remove(name)
}

// Lock forwards to the wrapped filesystem when it can lock.
func (f *FailingFS) Lock(ctx context.Context, path string, timeout time.Duration) (func() error, error) {
	if locker, ok := f.FS.(types.Locker); ok {
		return locker.Lock(ctx, path, timeout)
	}
	return func() error { return nil }, nil
}

// Failed returns the paths whose writes or removals were rejected.
func (f *FailingFS) Failed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.failed...)
}
