package types

import (
	"context"
	"io/fs"
	"time"
)

// FS is the filesystem interface required for devsync operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// Locker is implemented by filesystems whose advisory locks are shared with
// other processes. Callers skip locking when the FS does not implement it.
type Locker interface {
	// Lock blocks until the lock file at path is held or timeout expires.
	Lock(ctx context.Context, path string, timeout time.Duration) (unlock func() error, err error)
}
