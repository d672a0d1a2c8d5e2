// Package backup snapshots files before devsync mutates them and restores
// them on request.
//
// Each snapshot is an immutable set directory under the backup root named
// after its creation time (YYYY-MM-DDTHHMMSS, with a -N suffix when two
// sets share a second). A set holds copies of the captured files and a
// manifest.json describing them. A set directory without a manifest is an
// aborted snapshot and is ignored.
package backup

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/types"
)

const (
	// ManifestFile lists the files of a set.
	ManifestFile = "manifest.json"
	filesDir     = "files"
	idLayout     = "2006-01-02T150405"

	// lockTimeout bounds the wait for another process creating or
	// deleting sets.
	lockTimeout = 10 * time.Second
)

// BackupFile is one captured file.
type BackupFile struct {
	OriginalPath string      `json:"original_path"`
	BackupPath   string      `json:"backup_path"` // relative to the set directory
	Size         int64       `json:"size"`
	Checksum     string      `json:"checksum"`
	Mode         fs.FileMode `json:"mode"`
}

// Set is one snapshot.
type Set struct {
	ID        string       `json:"id"`
	Operation string       `json:"operation"`
	CreatedAt time.Time    `json:"created_at"`
	Files     []BackupFile `json:"files"`
}

// TotalSize sums the captured bytes.
func (s *Set) TotalSize() int64 {
	var n int64
	for _, f := range s.Files {
		n += f.Size
	}
	return n
}

// Manager owns one backup root.
type Manager struct {
	fs  types.FS
	dir string
	now func() time.Time
}

// NewManager returns a manager storing sets under dir.
func NewManager(fsys types.FS, dir string) *Manager {
	return &Manager{fs: fsys, dir: dir, now: time.Now}
}

// WithClock replaces the time source used for set IDs and retention.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Dir returns the backup root.
func (m *Manager) Dir() string { return m.dir }

// Snapshot copies every existing path into a new set and returns its ID.
// Missing paths are ignored; when none of the paths exist no set is created
// and the ID is empty. Any copy failure removes the partial set.
func (m *Manager) Snapshot(operation string, paths []string) (string, error) {
	logger := logging.GetLogger("backup")

	type captured struct {
		path string
		data []byte
		mode fs.FileMode
	}
	var files []captured
	for _, p := range dedupe(paths) {
		info, err := m.fs.Stat(p)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", errors.Wrapf(err, errors.ErrBackup, "cannot stat %s", p)
		}
		if info.IsDir() {
			return "", errors.Newf(errors.ErrBackup, "cannot back up directory %s", p)
		}
		data, err := m.fs.ReadFile(p)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrBackup, "cannot read %s", p)
		}
		files = append(files, captured{path: p, data: data, mode: info.Mode().Perm()})
	}
	if len(files) == 0 {
		logger.Debug().Str("operation", operation).Msg("Nothing to back up")
		return "", nil
	}

	unlock, err := m.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	now := m.now().UTC()
	id, err := m.newID(now)
	if err != nil {
		return "", err
	}
	setDir := filepath.Join(m.dir, id)

	set := Set{ID: id, Operation: operation, CreatedAt: now}
	abort := func(err error, format string, args ...interface{}) (string, error) {
		if rmErr := m.fs.RemoveAll(setDir); rmErr != nil {
			logger.Warn().Err(rmErr).Str("set", id).Msg("Failed to remove partial backup set")
		}
		return "", errors.Wrapf(err, errors.ErrBackup, format, args...).WithDetail("operation", operation)
	}

	if err := m.fs.MkdirAll(filepath.Join(setDir, filesDir), 0755); err != nil {
		return abort(err, "cannot create backup set %s", id)
	}
	for i, f := range files {
		rel := filepath.Join(filesDir, fmt.Sprintf("%03d-%s", i, filepath.Base(f.path)))
		if err := m.fs.WriteFile(filepath.Join(setDir, rel), f.data, 0644); err != nil {
			return abort(err, "cannot copy %s", f.path)
		}
		set.Files = append(set.Files, BackupFile{
			OriginalPath: f.path,
			BackupPath:   filepath.ToSlash(rel),
			Size:         int64(len(f.data)),
			Checksum:     hashutil.Checksum(f.data),
			Mode:         f.mode,
		})
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return abort(err, "cannot encode backup manifest")
	}
	if err := m.fs.WriteFile(filepath.Join(setDir, ManifestFile), append(data, '\n'), 0644); err != nil {
		return abort(err, "cannot write backup manifest")
	}

	logger.Info().
		Str("set", id).
		Str("operation", operation).
		Int("files", len(set.Files)).
		Msg("Backup created")
	return id, nil
}

// lock serializes set creation and deletion with other devsync processes
// sharing the backup root, so two runs in the same second get distinct IDs.
func (m *Manager) lock() (func(), error) {
	locker, ok := m.fs.(types.Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := locker.Lock(context.Background(), filepath.Clean(m.dir)+".lock", lockTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackup, "cannot lock backup dir %s", m.dir)
	}
	return func() {
		if err := unlock(); err != nil {
			logger := logging.GetLogger("backup")
			logger.Warn().Err(err).Str("dir", m.dir).Msg("Failed to release backup lock")
		}
	}, nil
}

func (m *Manager) newID(now time.Time) (string, error) {
	base := now.Format(idLayout)
	id := base
	for n := 1; ; n++ {
		if _, err := m.fs.Stat(filepath.Join(m.dir, id)); stderrors.Is(err, fs.ErrNotExist) {
			return id, nil
		} else if err != nil {
			return "", errors.Wrapf(err, errors.ErrBackup, "cannot inspect backup dir %s", m.dir)
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// Get reads the manifest of one set.
func (m *Manager) Get(id string) (*Set, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid backup id %q", id)
	}
	data, err := m.fs.ReadFile(filepath.Join(m.dir, id, ManifestFile))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Newf(errors.ErrBackupNotFound, "backup %s not found", id)
		}
		return nil, errors.Wrapf(err, errors.ErrBackup, "cannot read backup %s", id)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackup, "corrupt manifest for backup %s", id)
	}
	return &set, nil
}

// List returns every complete set, newest first.
func (m *Manager) List() ([]Set, error) {
	entries, err := m.fs.ReadDir(m.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrBackup, "cannot list %s", m.dir)
	}

	logger := logging.GetLogger("backup")
	var sets []Set
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		set, err := m.Get(entry.Name())
		if err != nil {
			logger.Debug().Err(err).Str("set", entry.Name()).Msg("Skipping incomplete backup set")
			continue
		}
		sets = append(sets, *set)
	}
	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.After(sets[j].CreatedAt)
		}
		return sets[i].ID > sets[j].ID
	})
	return sets, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
