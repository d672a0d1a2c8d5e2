package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
	"golang.org/x/sync/errgroup"
)

// InstallOptions selects what an install does.
type InstallOptions struct {
	// Tools to install for; empty uses the project's configured or
	// detected tools.
	Tools  []types.ToolID
	Policy conflicts.Policy
	DryRun bool
	// Concurrency bounds the tools written in parallel.
	Concurrency int
}

// Install installs pkg into the project. Per-component problems are
// reported in the result; the returned error is reserved for failures that
// stop the run (tracker, backup, invalid options).
func (i *Installer) Install(ctx context.Context, pkg *manifest.Package, opts InstallOptions) (*Result, error) {
	logger := i.logger.With().Str("pkg", pkg.Name).Str("version", pkg.Version).Logger()
	defer logging.LogOperationStart(logger, "install")()

	tools, err := i.targetTools(opts.Tools)
	if err != nil {
		return nil, err
	}
	state, err := i.tracker.Load()
	if err != nil {
		return nil, err
	}

	p, err := i.plan(ctx, pkg, opts, state, tools)
	if err != nil {
		return nil, err
	}
	result := p.result

	if opts.DryRun {
		for _, w := range p.writes {
			if !w.done {
				result.Installed = append(result.Installed, p.items(w, i.project.Rel(w.dest.Path))...)
			}
		}
		for _, s := range p.stale {
			if !s.keep {
				result.Removed = append(result.Removed, staleItem(s))
			}
		}
		result.finish()
		return result, nil
	}

	backupID, err := i.backups.Snapshot("install:"+pkg.Name+"@"+pkg.Version, i.backupPaths(p))
	if err != nil {
		result.finish()
		return result, err
	}
	result.BackupID = backupID

	written := i.execute(ctx, p, opts.Concurrency)

	clean := !p.failed()
	var leftover map[string]bool
	if clean {
		leftover = i.removeStale(ctx, p)
	}

	newFiles := i.newFiles(p, func(w *write) bool { return written[w] })
	if err := i.record(ctx, p, newFiles, clean, leftover); err != nil {
		result.finish()
		return result, err
	}

	result.finish()
	logger.Info().
		Str("status", string(result.Status)).
		Int("installed", len(result.Installed)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Msg("Install finished")
	return result, nil
}

// Plan reports what Install would do without touching the project.
func (i *Installer) Plan(ctx context.Context, pkg *manifest.Package, opts InstallOptions) (*Result, error) {
	opts.DryRun = true
	return i.Install(ctx, pkg, opts)
}

// backupPaths lists every existing file the run will modify or delete.
func (i *Installer) backupPaths(p *plan) []string {
	var out []string
	for _, w := range p.writes {
		if w.done || w.unchanged {
			continue
		}
		if _, err := i.fs.Stat(w.dest.Path); err == nil {
			out = append(out, w.dest.Path)
		}
	}
	for _, s := range p.stale {
		if s.keep {
			continue
		}
		if _, err := i.fs.Stat(s.dest.Path); err == nil {
			out = append(out, s.dest.Path)
		}
	}
	return out
}

// pathLocks serializes read-modify-write cycles on shared files.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *pathLocks) lock(path string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockFile takes the cross-process lock of a destination. Lock files live
// in the project's state directory, one per destination path.
func (i *Installer) lockFile(ctx context.Context, path string) (func(), error) {
	locker, ok := i.fs.(types.Locker)
	if !ok {
		return func() {}, nil
	}
	rel := i.project.Rel(path)
	name := strings.TrimPrefix(hashutil.Checksum([]byte(rel)), hashutil.Prefix)[:24] + ".lock"
	lockPath := filepath.Join(i.project.StateDir, LocksDirName, name)

	unlock, err := locker.Lock(ctx, lockPath, i.lockTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrAbort, "aborted while waiting for "+rel)
		}
		return nil, errors.Wrapf(err, errors.ErrFileLock, "cannot lock %s", rel).
			WithDetail("path", rel).
			WithDetail("timeout", i.lockTimeout.String())
	}
	return func() {
		if err := unlock(); err != nil {
			i.logger.Warn().Err(err).Str("path", rel).Msg("Failed to release file lock")
		}
	}, nil
}

// LocksDirName is the state subdirectory holding destination lock files.
const LocksDirName = "locks"

// execute performs the planned writes, one worker per tool. The first
// write failure cancels the run; what was not yet written is reported as
// aborted.
func (i *Installer) execute(ctx context.Context, p *plan, concurrency int) map[*write]bool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	groups := make(map[types.ToolID][]*write)
	for _, w := range p.writes {
		if w.done || w.unchanged {
			continue
		}
		groups[w.tools[0]] = append(groups[w.tools[0]], w)
	}
	for _, w := range p.writes {
		if w.unchanged && !w.done {
			p.result.Installed = append(p.result.Installed, p.items(w, i.project.Rel(w.dest.Path))...)
		}
	}

	var (
		mu      sync.Mutex
		written = make(map[*write]bool)
		locks   pathLocks
	)
	abort := func(ws []*write, err error) {
		for _, w := range ws {
			for _, it := range p.items(w, i.project.Rel(w.dest.Path)) {
				p.add(&p.result.Failed, failure(it, err))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, tool := range p.tools {
		ws := groups[tool]
		if len(ws) == 0 {
			continue
		}
		g.Go(func() error {
			for n, w := range ws {
				if err := gctx.Err(); err != nil {
					abort(ws[n:], errors.Wrap(err, errors.ErrAbort, "install aborted"))
					return nil
				}
				if err := i.apply(gctx, w, &locks); err != nil {
					abort(ws[n:n+1], err)
					if errors.IsFatal(err) {
						abort(ws[n+1:], errors.New(errors.ErrAbort, "aborted after an earlier write failure"))
						return err
					}
					continue
				}
				mu.Lock()
				written[w] = true
				mu.Unlock()
				for _, it := range p.items(w, i.project.Rel(w.dest.Path)) {
					p.add(&p.result.Installed, it)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Error().Err(err).Msg("Install stopped after a write failure")
	}
	return written
}

func fileMode(kind types.Kind) os.FileMode {
	if kind == types.KindHook {
		return 0755
	}
	return 0644
}

// apply renders w against the current file content and writes it. The
// read, render and write happen under the destination's file lock so a
// concurrent devsync run cannot drop sections of a shared file.
func (i *Installer) apply(ctx context.Context, w *write, locks *pathLocks) error {
	unlock := locks.lock(w.dest.Path)
	defer unlock()
	release, err := i.lockFile(ctx, w.dest.Path)
	if err != nil {
		return err
	}
	defer release()

	existing, err := i.readExisting(w.dest.Path)
	if err != nil {
		return err
	}
	rendered, err := i.render(w, existing)
	if err != nil {
		return err
	}

	if err := i.fs.MkdirAll(filepath.Dir(w.dest.Path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrWrite, "cannot create %s", filepath.Dir(w.dest.Path))
	}
	if err := i.fs.WriteFile(w.dest.Path, rendered.Content, fileMode(w.component.Kind)); err != nil {
		return errors.Wrapf(err, errors.ErrWrite, "cannot write %s", w.dest.Path).
			WithDetail("component", w.component.Name)
	}
	w.strategy = rendered.Strategy
	w.checksum = hashutil.Checksum(rendered.Fingerprint)

	i.logger.Debug().
		Str("path", w.dest.Key()).
		Str("kind", string(w.component.Kind)).
		Str("strategy", string(w.strategy)).
		Msg("Written")
	return nil
}

func staleItem(s staleFile) Item {
	return Item{
		Component: s.file.Component,
		Kind:      s.file.Kind,
		Tool:      s.tool,
		Path:      s.file.Path,
		Section:   s.file.Section,
	}
}

// removeStale deletes destinations of the previous version that this run
// no longer produces. Files edited since they were installed stay. It
// returns the keys of stale destinations still on disk, which remain
// recorded.
func (i *Installer) removeStale(ctx context.Context, p *plan) map[string]bool {
	leftover := make(map[string]bool)
	for _, s := range p.stale {
		if s.keep {
			continue
		}
		it := staleItem(s)
		drift, err := tracker.Check(i.fs, i.project.Root, s.tool, s.file)
		switch drift {
		case tracker.DriftMissing:
			continue
		case tracker.DriftModified, tracker.DriftUnreadable:
			i.logger.Warn().Err(err).Str("path", s.file.Key()).Msg("Stale file was modified, leaving it")
			p.result.Skipped = append(p.result.Skipped, skip(it, ReasonModified))
			leftover[s.file.Key()] = true
			continue
		}
		if err := i.removeDestination(ctx, s.dest); err != nil {
			p.result.Failed = append(p.result.Failed, failure(it, err))
			leftover[s.file.Key()] = true
			continue
		}
		p.result.Removed = append(p.result.Removed, it)
	}
	return leftover
}

// ReasonModified marks destinations left alone because they were edited
// after devsync wrote them.
const ReasonModified = "modified"

// removeDestination strips a destination from its file, deleting the file
// when nothing else remains.
func (i *Installer) removeDestination(ctx context.Context, dest paths.Destination) error {
	release, err := i.lockFile(ctx, dest.Path)
	if err != nil {
		return err
	}
	defer release()

	content, err := i.readExisting(dest.Path)
	if err != nil || content == nil {
		return err
	}
	out, found, empty, err := adapter.Remove(content, dest)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if empty {
		if err := i.fs.Remove(dest.Path); err != nil {
			return errors.Wrapf(err, errors.ErrWrite, "cannot remove %s", dest.Path)
		}
		return nil
	}
	if err := i.fs.WriteFile(dest.Path, out, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrWrite, "cannot update %s", dest.Path)
	}
	return nil
}

// record stores exactly what is on disk after the run. A run that was not
// clean keeps the previous entries it did not replace, since their files
// were left in place; a clean run keeps only the stale entries in leftover.
func (i *Installer) record(ctx context.Context, p *plan, files map[types.ToolID][]tracker.InstalledFile, clean bool, leftover map[string]bool) error {
	pkg := p.pkg
	return i.tracker.Update(context.WithoutCancel(ctx), func(s tracker.State) error {
		now := i.now().UTC()
		var prev *tracker.Record
		if rec, ok := s[pkg.Name]; ok {
			prev = rec
		}

		for _, tool := range p.tools {
			next := files[tool]
			var old []tracker.InstalledFile
			if prev != nil && prev.Tools[tool] != nil {
				old = prev.Tools[tool].Files
			}
			for _, f := range tracker.Stale(old, next) {
				if !clean || leftover[f.Key()] {
					next = append(next, f)
				}
			}
			if prev != nil && prev.Version == pkg.Version && prev.Namespace == pkg.Namespace && sameFiles(old, next) {
				continue
			}
			s.Set(pkg.Name, pkg.Version, pkg.Namespace, tool, next, now)
			for _, f := range next {
				s.Disown(f.Path, f.Section, pkg.Name)
			}
		}
		return nil
	})
}

func sameFiles(a, b []tracker.InstalledFile) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[string]tracker.InstalledFile, len(a))
	for _, f := range a {
		index[f.Key()] = f
	}
	for _, f := range b {
		old, ok := index[f.Key()]
		if !ok || old != f {
			return false
		}
	}
	return true
}
