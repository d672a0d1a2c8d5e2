// Package installer is the orchestrator: it expands a package into
// (component, tool) pairs, plans every destination, resolves conflicts,
// snapshots what it will touch, writes, and records the result.
package installer

import (
	"sort"
	"time"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/backup"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/credentials"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultConcurrency bounds the tools installed in parallel.
const DefaultConcurrency = 4

// Options contains the collaborators of an Installer.
type Options struct {
	Project *paths.ProjectContext
	// Filesystem operations interface for testing
	FS types.FS

	// Prompter answers Prompt conflicts; nil when not interactive.
	Prompter conflicts.Prompter
	// NonInteractive answers Prompt conflicts when Prompter is nil.
	NonInteractive conflicts.Policy
	Merger         adapter.Merger
	Credentials    credentials.Resolver

	// LockTimeout bounds waits on the tracker and destination file locks.
	LockTimeout time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

// Installer runs installs and uninstalls for one project.
type Installer struct {
	project        *paths.ProjectContext
	fs             types.FS
	tracker        *tracker.Tracker
	backups        *backup.Manager
	prompter       conflicts.Prompter
	nonInteractive conflicts.Policy
	merger         adapter.Merger
	credentials    credentials.Resolver
	lockTimeout    time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// New creates an installer.
func New(opts Options) *Installer {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("installer")
	}
	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	creds := opts.Credentials
	if creds == nil {
		creds = credentials.EnvResolver{}
	}
	lockTimeout := opts.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = tracker.DefaultLockTimeout
	}

	return &Installer{
		project:        opts.Project,
		fs:             fs,
		tracker:        tracker.New(fs, opts.Project.TrackerPath, tracker.Options{LockTimeout: lockTimeout, Now: now}),
		backups:        backup.NewManager(fs, opts.Project.BackupDir).WithClock(now),
		prompter:       opts.Prompter,
		nonInteractive: opts.NonInteractive,
		merger:         opts.Merger,
		credentials:    creds,
		lockTimeout:    lockTimeout,
		now:            now,
		logger:         logger,
	}
}

// Tracker exposes the installation tracker of the project.
func (i *Installer) Tracker() *tracker.Tracker { return i.tracker }

// Backups exposes the backup manager of the project.
func (i *Installer) Backups() *backup.Manager { return i.backups }

// Status is the overall outcome of an install.
type Status string

const (
	// StatusComplete means every supported component is installed.
	StatusComplete Status = "complete"
	// StatusPartial means some pairs were skipped by capability or policy.
	StatusPartial Status = "partial"
	// StatusFailed means at least one component failed.
	StatusFailed Status = "failed"
)

// Item is one (component, tool) outcome.
type Item struct {
	Component string           `json:"component"`
	Kind      types.Kind       `json:"kind"`
	Tool      types.ToolID     `json:"tool"`
	Path      string           `json:"path,omitempty"`
	Section   string           `json:"section,omitempty"`
	Strategy  adapter.Strategy `json:"strategy,omitempty"`
	Policy    conflicts.Policy `json:"policy,omitempty"`
	// Unchanged marks installed items whose destination already held the
	// rendered content.
	Unchanged bool `json:"unchanged,omitempty"`
	// Reason explains a skip: unsupported, policy, conflict, modified...
	Reason string `json:"reason,omitempty"`
	// ErrorKind and Error describe a failure.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (it Item) key() string {
	return string(it.Tool) + "\x00" + it.Component + "\x00" + string(it.Kind) + "\x00" + it.Path + "\x00" + it.Section
}

// Result reports an install.
type Result struct {
	Package   string `json:"package"`
	Version   string `json:"version"`
	Installed []Item `json:"installed"`
	Skipped   []Item `json:"skipped"`
	Failed    []Item `json:"failed"`
	// Removed lists stale destinations of the previous version.
	Removed  []Item `json:"removed"`
	BackupID string `json:"backup_id,omitempty"`
	Status   Status `json:"status"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

func (r *Result) finish() {
	for _, items := range [][]Item{r.Installed, r.Skipped, r.Failed, r.Removed} {
		sort.SliceStable(items, func(a, b int) bool { return items[a].key() < items[b].key() })
	}
	switch {
	case len(r.Failed) > 0:
		r.Status = StatusFailed
	case len(r.Skipped) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusComplete
	}
}

func failure(it Item, err error) Item {
	it.ErrorKind = errors.Kind(err)
	it.Error = err.Error()
	return it
}

func skip(it Item, reason string) Item {
	it.Reason = reason
	return it
}
