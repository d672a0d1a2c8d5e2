package installer

import (
	"context"
	"sort"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
)

// UninstallOptions selects what an uninstall removes.
type UninstallOptions struct {
	// Tools limits the uninstall; empty removes the package everywhere.
	Tools  []types.ToolID
	DryRun bool
	// Force removes destinations even when they were edited after install.
	Force bool
}

// UninstallResult reports an uninstall.
type UninstallResult struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	Removed  []Item `json:"removed"`
	Skipped  []Item `json:"skipped"`
	Failed   []Item `json:"failed"`
	BackupID string `json:"backup_id,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

type removal struct {
	item  Item
	file  tracker.InstalledFile
	tool  types.ToolID
	dest  paths.Destination
	state tracker.DriftState
	// shared destinations are still recorded by another package or tool
	// and stay on disk.
	shared bool
}

// Uninstall removes exactly the destinations recorded for a package and
// forgets them. Destinations left on disk (edited without Force, or failed)
// stay recorded so a later uninstall can finish the job. Other content of
// shared files is preserved byte for byte.
func (i *Installer) Uninstall(ctx context.Context, name string, opts UninstallOptions) (*UninstallResult, error) {
	logger := i.logger.With().Str("pkg", name).Logger()
	defer logging.LogOperationStart(logger, "uninstall")()

	state, err := i.tracker.Load()
	if err != nil {
		return nil, err
	}
	rec, ok := state[name]
	if !ok {
		return nil, errors.Newf(errors.ErrTrackerNotFound, "package %s is not installed", name).
			WithDetail("package", name)
	}

	tools := rec.ToolIDs()
	if len(opts.Tools) > 0 {
		tools = nil
		for _, t := range opts.Tools {
			if _, ok := rec.Tools[t]; ok {
				tools = append(tools, t)
			}
		}
		if len(tools) == 0 {
			return nil, errors.Newf(errors.ErrTrackerNotFound, "package %s is not installed for %v", name, opts.Tools).
				WithDetail("package", name)
		}
	}
	removing := make(map[types.ToolID]bool, len(tools))
	for _, t := range tools {
		removing[t] = true
	}

	// destinations referenced by anything that survives the uninstall
	referenced := make(map[string]bool)
	for pkgName, other := range state {
		for tool, tr := range other.Tools {
			if pkgName == name && removing[tool] {
				continue
			}
			for _, f := range tr.Files {
				referenced[f.Key()] = true
			}
		}
	}

	result := &UninstallResult{Package: name, Version: rec.Version, DryRun: opts.DryRun}
	var removals []*removal
	seen := make(map[string]bool)
	for _, tool := range tools {
		for _, f := range rec.Tools[tool].Files {
			it := Item{Component: f.Component, Kind: f.Kind, Tool: tool, Path: f.Path, Section: f.Section}
			if seen[f.Key()] {
				continue
			}
			seen[f.Key()] = true

			dest, err := f.Destination(i.project.Root, tool)
			if err != nil {
				result.Failed = append(result.Failed, failure(it, err))
				continue
			}
			drift, _ := tracker.Check(i.fs, i.project.Root, tool, f)
			removals = append(removals, &removal{
				item: it, file: f, tool: tool, dest: dest, state: drift,
				shared: referenced[f.Key()],
			})
		}
	}

	var targets []string
	var todo []*removal
	// kept destinations stay on disk and therefore stay recorded
	kept := make(map[string]bool)
	for _, r := range removals {
		switch {
		case r.shared:
			result.Skipped = append(result.Skipped, skip(r.item, "shared"))
		case r.state == tracker.DriftMissing:
			result.Skipped = append(result.Skipped, skip(r.item, string(tracker.DriftMissing)))
		case r.state != "" && !opts.Force:
			result.Skipped = append(result.Skipped, skip(r.item, ReasonModified))
			kept[r.file.Key()] = true
		default:
			todo = append(todo, r)
			targets = append(targets, r.dest.Path)
		}
	}

	if opts.DryRun {
		for _, r := range todo {
			result.Removed = append(result.Removed, r.item)
		}
		sortItems(result.Removed, result.Skipped, result.Failed)
		return result, nil
	}

	backupID, err := i.backups.Snapshot("uninstall:"+name, targets)
	if err != nil {
		return result, err
	}
	result.BackupID = backupID

	for _, r := range todo {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, failure(r.item, errors.Wrap(err, errors.ErrAbort, "uninstall aborted")))
			continue
		}
		if err := i.removeDestination(ctx, r.dest); err != nil {
			result.Failed = append(result.Failed, failure(r.item, err))
			continue
		}
		result.Removed = append(result.Removed, r.item)
	}

	for _, it := range result.Failed {
		kept[tracker.InstalledFile{Path: it.Path, Section: it.Section}.Key()] = true
	}
	err = i.tracker.Update(context.WithoutCancel(ctx), func(s tracker.State) error {
		cur, ok := s[name]
		if !ok {
			return nil
		}
		now := i.now().UTC()
		for _, tool := range tools {
			tr, ok := cur.Tools[tool]
			if !ok {
				continue
			}
			var remaining []tracker.InstalledFile
			for _, f := range tr.Files {
				if kept[f.Key()] {
					remaining = append(remaining, f)
				}
			}
			s.Set(name, cur.Version, cur.Namespace, tool, remaining, now)
		}
		return nil
	})
	sortItems(result.Removed, result.Skipped, result.Failed)
	if err != nil {
		return result, err
	}

	logger.Info().Int("removed", len(result.Removed)).Int("skipped", len(result.Skipped)).Msg("Uninstall finished")
	return result, nil
}

func sortItems(lists ...[]Item) {
	for _, items := range lists {
		sort.SliceStable(items, func(a, b int) bool { return items[a].key() < items[b].key() })
	}
}
