package filesystem

import (
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/spf13/afero"
)

// aferoFS implements types.FS using afero
type aferoFS struct {
	fs afero.Fs
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs}
}

// NewMemory returns an in-memory filesystem.
func NewMemory() types.FS {
	return NewAferoFS(afero.NewMemMapFs())
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

// WriteFile mirrors the OS implementation: temporary sibling, then rename.
func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	tmp, err := afero.TempFile(a.fs, filepath.Dir(name), "."+filepath.Base(name)+".devsync-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = a.fs.Remove(tmpName)
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = a.fs.Remove(tmpName)
		return err
	}
	if err := a.fs.Chmod(tmpName, perm); err != nil {
		_ = a.fs.Remove(tmpName)
		return err
	}
	if err := a.fs.Rename(tmpName, name); err != nil {
		_ = a.fs.Remove(tmpName)
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	return nil
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

func (a *aferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

func (a *aferoFS) Rename(oldpath, newpath string) error {
	return a.fs.Rename(oldpath, newpath)
}
