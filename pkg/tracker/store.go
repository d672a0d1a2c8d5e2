package tracker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/types"
)

// DefaultLockTimeout bounds how long a writer waits for the tracker lock.
const DefaultLockTimeout = 10 * time.Second

// Options configures a Tracker.
type Options struct {
	LockTimeout time.Duration
	Now         func() time.Time
}

// Tracker reads and updates one tracker file. Data and the lock file next
// to it both go through fs; filesystems that are not a types.Locker are
// not locked.
type Tracker struct {
	fs          types.FS
	path        string
	lockTimeout time.Duration
	now         func() time.Time
}

// New returns a tracker for the document at path.
func New(fsys types.FS, path string, opts Options) *Tracker {
	t := &Tracker{fs: fsys, path: path, lockTimeout: opts.LockTimeout, now: opts.Now}
	if t.lockTimeout <= 0 {
		t.lockTimeout = DefaultLockTimeout
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Path returns the tracker document path.
func (t *Tracker) Path() string { return t.path }

// Load reads the whole document. A missing file is an empty state.
func (t *Tracker) Load() (State, error) {
	data, err := t.fs.ReadFile(t.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrTrackerCorrupt, "cannot read tracker %s", t.path)
	}
	if len(data) == 0 {
		return State{}, nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTrackerCorrupt, "tracker %s is corrupt", t.path).
			WithDetail("path", t.path)
	}
	if state == nil {
		state = State{}
	}
	return state, nil
}

// Lookup returns the record of one package.
func (t *Tracker) Lookup(name string) (*Record, error) {
	state, err := t.Load()
	if err != nil {
		return nil, err
	}
	rec, ok := state[name]
	if !ok {
		return nil, notFound(name)
	}
	return rec, nil
}

// Packages lists the installed packages.
func (t *Tracker) Packages() ([]string, error) {
	state, err := t.Load()
	if err != nil {
		return nil, err
	}
	return state.Packages(), nil
}

// Owner returns the package that installed a destination, or "".
func (t *Tracker) Owner(path, section string) (string, error) {
	state, err := t.Load()
	if err != nil {
		return "", err
	}
	name, _ := state.Owner(path, section)
	return name, nil
}

// Update runs fn on the current state under the lock and saves the result.
// Nothing is saved when fn fails.
func (t *Tracker) Update(ctx context.Context, fn func(State) error) error {
	unlock, err := t.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := t.Load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return t.save(state)
}

// Record replaces what package name installed for tool.
func (t *Tracker) Record(ctx context.Context, name, version, namespace string, tool types.ToolID, files []InstalledFile) error {
	return t.Update(ctx, func(s State) error {
		s.Set(name, version, namespace, tool, files, t.now().UTC())
		return nil
	})
}

// Remove forgets a tool of a package, or the whole package when tool is
// empty.
func (t *Tracker) Remove(ctx context.Context, name string, tool types.ToolID) error {
	return t.Update(ctx, func(s State) error {
		if !s.Drop(name, tool) {
			return notFound(name)
		}
		return nil
	})
}

func (t *Tracker) lock(ctx context.Context) (func(), error) {
	logger := logging.GetLogger("tracker")

	locker, ok := t.fs.(types.Locker)
	if !ok {
		return func() {}, nil
	}
	lockPath := t.path + ".lock"
	unlock, err := locker.Lock(ctx, lockPath, t.lockTimeout)
	if err != nil {
		e := errors.Wrapf(err, errors.ErrTrackerLock, "cannot lock tracker %s", t.path)
		if stderrors.Is(err, filesystem.ErrLocked) {
			e = errors.Newf(errors.ErrTrackerLock, "tracker %s is locked by another process", t.path)
		}
		return nil, e.WithDetail("timeout", t.lockTimeout.String())
	}
	logger.Trace().Str("path", lockPath).Msg("Tracker locked")

	return func() {
		if err := unlock(); err != nil {
			logger.Warn().Err(err).Str("path", lockPath).Msg("Failed to release tracker lock")
		}
	}, nil
}

func (t *Tracker) save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTrackerWrite, "cannot encode tracker")
	}
	data = append(data, '\n')

	if err := t.fs.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrTrackerWrite, "cannot create %s", filepath.Dir(t.path))
	}
	tmp := t.path + ".tmp"
	if err := t.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrTrackerWrite, "cannot write %s", tmp)
	}
	if err := t.fs.Rename(tmp, t.path); err != nil {
		_ = t.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrTrackerWrite, "cannot replace %s", t.path)
	}
	logger := logging.GetLogger("tracker")
	logger.Debug().Int("packages", len(state)).Msg("Tracker saved")
	return nil
}
