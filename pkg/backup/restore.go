package backup

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/logging"
)

// RestoreOptions selects what a restore touches.
type RestoreOptions struct {
	// Filter limits the restore to these original paths (or files below
	// these directories). Empty restores the whole set.
	Filter []string
	DryRun bool
}

// RestoreResult reports a restore.
type RestoreResult struct {
	SetID string `json:"set_id"`
	// PreRestoreID is the snapshot of the state the restore replaced.
	// Empty on dry runs or when none of the files existed.
	PreRestoreID string       `json:"pre_restore_id,omitempty"`
	Files        []BackupFile `json:"files"`
	DryRun       bool         `json:"dry_run,omitempty"`
}

// Restore copies the files of set id back to their original paths. The
// current state of those paths is snapshotted first so a restore can itself
// be undone.
func (m *Manager) Restore(id string, opts RestoreOptions) (*RestoreResult, error) {
	logger := logging.GetLogger("backup")

	set, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	selected := selectFiles(set.Files, opts.Filter)
	if len(opts.Filter) > 0 && len(selected) == 0 {
		return nil, errors.Newf(errors.ErrNotFound, "no file in backup %s matches the filter", id).
			WithDetail("filter", opts.Filter)
	}

	contents := make([][]byte, len(selected))
	for i, f := range selected {
		data, err := m.fs.ReadFile(filepath.Join(m.dir, id, filepath.FromSlash(f.BackupPath)))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrRestore, "cannot read backup copy of %s", f.OriginalPath)
		}
		if !hashutil.Equal(hashutil.Checksum(data), f.Checksum) {
			return nil, errors.Newf(errors.ErrRestore, "backup copy of %s is corrupt", f.OriginalPath).
				WithDetail("set", id)
		}
		contents[i] = data
	}

	result := &RestoreResult{SetID: id, Files: selected, DryRun: opts.DryRun}
	if opts.DryRun {
		return result, nil
	}

	targets := make([]string, len(selected))
	for i, f := range selected {
		targets[i] = f.OriginalPath
	}
	pre, err := m.Snapshot("restore:"+id, targets)
	if err != nil {
		return nil, err
	}
	result.PreRestoreID = pre

	for i, f := range selected {
		if err := m.fs.MkdirAll(filepath.Dir(f.OriginalPath), 0755); err != nil {
			return result, errors.Wrapf(err, errors.ErrRestore, "cannot create parent of %s", f.OriginalPath)
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}
		if err := m.fs.WriteFile(f.OriginalPath, contents[i], mode); err != nil {
			return result, errors.Wrapf(err, errors.ErrRestore, "cannot restore %s", f.OriginalPath).
				WithDetail("pre_restore", pre)
		}
		logger.Debug().Str("path", f.OriginalPath).Msg("Restored")
	}

	logger.Info().Str("set", id).Int("files", len(selected)).Msg("Backup restored")
	return result, nil
}

func selectFiles(files []BackupFile, filter []string) []BackupFile {
	if len(filter) == 0 {
		return files
	}
	var out []BackupFile
	for _, f := range files {
		for _, want := range filter {
			want = filepath.Clean(want)
			if f.OriginalPath == want || strings.HasPrefix(f.OriginalPath, want+string(filepath.Separator)) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// RetentionPolicy decides which sets Cleanup deletes. Zero values disable
// the corresponding limit.
type RetentionPolicy struct {
	Keep   int
	MaxAge time.Duration
	DryRun bool
}

// Cleanup deletes sets beyond Keep (newest first) or older than MaxAge and
// returns their IDs.
func (m *Manager) Cleanup(policy RetentionPolicy) ([]string, error) {
	if policy.Keep < 0 || policy.MaxAge < 0 {
		return nil, errors.New(errors.ErrInvalidInput, "retention limits must not be negative")
	}
	if !policy.DryRun {
		unlock, err := m.lock()
		if err != nil {
			return nil, err
		}
		defer unlock()
	}
	sets, err := m.List()
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("backup")
	now := m.now()
	var removed []string
	for i, set := range sets {
		expired := policy.MaxAge > 0 && now.Sub(set.CreatedAt) > policy.MaxAge
		excess := policy.Keep > 0 && i >= policy.Keep
		if !expired && !excess {
			continue
		}
		if !policy.DryRun {
			if err := m.fs.RemoveAll(filepath.Join(m.dir, set.ID)); err != nil {
				return removed, errors.Wrapf(err, errors.ErrBackup, "cannot remove backup %s", set.ID)
			}
			logger.Debug().Str("set", set.ID).Msg("Backup removed")
		}
		removed = append(removed, set.ID)
	}
	return removed, nil
}
