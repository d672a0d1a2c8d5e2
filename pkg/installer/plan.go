package installer

import (
	"context"
	stderrors "errors"
	"io/fs"
	"sort"
	"sync"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/credentials"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
)

// write is one planned destination. Tools that resolve the same component
// to the same destination (AGENTS.md for several tools, resources) share it.
type write struct {
	component manifest.Component
	tools     []types.ToolID
	dest      paths.Destination
	source    []byte
	env       map[string]string

	policy    conflicts.Policy
	merged    []byte
	unchanged bool
	// done is set once the write has a final outcome at plan time
	// (skipped or failed).
	done bool

	strategy adapter.Strategy
	checksum string
}

type staleFile struct {
	file tracker.InstalledFile
	tool types.ToolID
	dest paths.Destination
	// keep is set when another record still references the destination;
	// it is only dropped from this package's record.
	keep bool
}

type plan struct {
	pkg   *manifest.Package
	tools []types.ToolID
	state tracker.State

	writes  []*write
	planned map[string]bool
	// carried are previous entries kept for skipped destinations.
	carried map[types.ToolID][]tracker.InstalledFile
	stale   []staleFile

	mu     sync.Mutex
	result *Result
}

func (p *plan) add(list *[]Item, it Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*list = append(*list, it)
}

func (p *plan) items(w *write, rel string) []Item {
	out := make([]Item, 0, len(w.tools))
	for _, tool := range w.tools {
		out = append(out, Item{
			Component: w.component.Name,
			Kind:      w.component.Kind,
			Tool:      tool,
			Path:      rel,
			Section:   w.dest.Section,
			Strategy:  w.strategy,
			Policy:    w.policy,
			Unchanged: w.unchanged,
		})
	}
	return out
}

func (p *plan) failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.result.Failed) > 0
}

// previous finds this package's recorded entry for a destination.
func (p *plan) previous(rel, section string) (tracker.InstalledFile, bool) {
	rec, ok := p.state[p.pkg.Name]
	if !ok {
		return tracker.InstalledFile{}, false
	}
	for _, f := range rec.Files() {
		if f.Path == rel && f.Section == section {
			return f, true
		}
	}
	return tracker.InstalledFile{}, false
}

// targetTools picks the tools of a run: requested, configured, then
// detected in the project.
func (i *Installer) targetTools(requested []types.ToolID) ([]types.ToolID, error) {
	tools := requested
	if len(tools) == 0 {
		tools = i.project.Tools
	}
	if len(tools) == 0 {
		tools = registry.Detect(i.fs, i.project.Root)
	}
	if len(tools) == 0 {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"no AI tools detected in %s, select tools explicitly", i.project.Root)
	}
	names := make([]string, len(tools))
	for n, t := range tools {
		names[n] = string(t)
	}
	tools = types.ParseTools(names)
	if err := registry.Validate(tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// plan expands the package and decides every destination. It never
// writes.
func (i *Installer) plan(ctx context.Context, pkg *manifest.Package, opts InstallOptions, state tracker.State, tools []types.ToolID) (*plan, error) {
	p := &plan{
		pkg:     pkg,
		tools:   tools,
		state:   state,
		planned: make(map[string]bool),
		carried: make(map[types.ToolID][]tracker.InstalledFile),
		result:  &Result{Package: pkg.Name, Version: pkg.Version, DryRun: opts.DryRun},
	}

	byKey := make(map[string]*write)
	for _, c := range pkg.Components {
		var (
			source    []byte
			env       map[string]string
			loaded    bool
			sourceErr error
		)
		load := func() error {
			if loaded {
				return sourceErr
			}
			loaded = true
			source, sourceErr = c.Content(i.fs, pkg.Root)
			if sourceErr != nil {
				sourceErr = errors.Wrapf(sourceErr, errors.ErrAdaptation, "cannot read source of %s", c.Name)
				return sourceErr
			}
			if c.Kind == types.KindMCPServer {
				env, sourceErr = credentials.ResolveAll(ctx, i.credentials, c)
			}
			return sourceErr
		}

		for _, tool := range tools {
			if !c.AllowsTool(tool) {
				continue
			}
			it := Item{Component: c.Name, Kind: c.Kind, Tool: tool}
			if !registry.Supports(tool, c.Kind) {
				p.result.Skipped = append(p.result.Skipped, skip(it, conflicts.ReasonUnsupported))
				continue
			}
			rule, err := registry.InstallRuleFor(tool, c.Kind)
			if err != nil {
				p.result.Failed = append(p.result.Failed, failure(it, err))
				continue
			}
			dest, err := paths.Resolve(i.project.Root, tool, c, rule)
			if err != nil {
				p.result.Failed = append(p.result.Failed, failure(it, err))
				continue
			}
			it.Path, it.Section = i.project.Rel(dest.Path), dest.Section

			if w, ok := byKey[dest.Key()]; ok {
				if w.component.Kind == c.Kind && w.component.Name == c.Name {
					w.tools = append(w.tools, tool)
					continue
				}
				err := errors.Newf(errors.ErrPathCollision, "%s is also the destination of %s %s",
					it.Path, w.component.Kind, w.component.Name).
					WithDetail("component", c.Name)
				p.result.Failed = append(p.result.Failed, failure(it, err))
				continue
			}
			if err := load(); err != nil {
				p.result.Failed = append(p.result.Failed, failure(it, err))
				continue
			}

			w := &write{component: c, tools: []types.ToolID{tool}, dest: dest, source: source, env: env}
			byKey[dest.Key()] = w
			p.planned[dest.Key()] = true
			p.writes = append(p.writes, w)
		}
	}

	resolver := &conflicts.Resolver{
		Policy:         opts.Policy,
		Prompter:       i.prompter,
		NonInteractive: i.nonInteractive,
		Merger:         i.merger,
	}
	if opts.DryRun {
		resolver.Prompter = nil
	}
	for _, w := range p.writes {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrAbort, "install interrupted")
		}
		i.decide(ctx, p, resolver, w)
	}

	if len(p.result.Failed) == 0 {
		p.stale = i.staleFiles(p)
	}
	return p, nil
}

func (i *Installer) readExisting(path string) ([]byte, error) {
	data, err := i.fs.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrWrite, "cannot read %s", path)
	}
	return data, nil
}

// decide runs the conflict procedure for one write.
func (i *Installer) decide(ctx context.Context, p *plan, resolver *conflicts.Resolver, w *write) {
	rel := i.project.Rel(w.dest.Path)
	fail := func(err error) {
		w.done = true
		for _, it := range p.items(w, rel) {
			p.result.Failed = append(p.result.Failed, failure(it, err))
		}
	}

	existing, err := i.readExisting(w.dest.Path)
	if err != nil {
		fail(err)
		return
	}
	rendered, err := i.render(w, existing)
	if err != nil {
		fail(err)
		return
	}
	w.strategy = rendered.Strategy
	w.checksum = hashutil.Checksum(rendered.Fingerprint)

	var region []byte
	exists := false
	if existing != nil {
		region, exists, err = adapter.Fingerprint(existing, w.dest)
		if err != nil {
			fail(err)
			return
		}
	}
	if !exists {
		return
	}

	current := hashutil.Checksum(region)
	owner, owned := p.state.Owner(rel, w.dest.Section)
	ours := owned && owner == p.pkg.Name

	switch {
	case (ours || !owned) && current == w.checksum:
		w.unchanged = true
		return
	case ours:
		if prev, ok := p.previous(rel, w.dest.Section); ok && hashutil.Equal(prev.Checksum, current) {
			// untouched since we wrote it: update in place
			return
		}
	}

	c := conflicts.Conflict{
		Component:   w.component,
		Tool:        w.tools[0],
		Destination: w.dest,
		Exists:      true,
		Existing:    region,
		Incoming:    rendered.Fingerprint,
		Taken:       func(d paths.Destination) bool { return i.taken(p, w, d) },
	}
	if owned && !ours {
		c.Owner = owner
	}

	d, err := resolver.Resolve(ctx, c)
	if err != nil {
		fail(err)
		return
	}
	w.policy = d.Policy

	if d.Action == conflicts.ActionNoOp {
		w.done = true
		for _, it := range p.items(w, rel) {
			p.result.Skipped = append(p.result.Skipped, skip(it, d.Reason))
		}
		if prev, ok := p.previous(rel, w.dest.Section); ok && ours {
			for _, tool := range w.tools {
				p.carried[tool] = append(p.carried[tool], prev)
			}
		}
		return
	}

	if d.Destination.Key() != w.dest.Key() {
		w.dest = d.Destination
		p.planned[w.dest.Key()] = true
	}
	if d.Merged != nil {
		w.merged = d.Merged
		w.strategy = adapter.StrategyMerged
		if w.dest.Shared() {
			w.checksum = hashutil.Checksum([]byte(adapter.SectionBody(d.Merged)))
		} else {
			w.checksum = hashutil.Checksum(d.Merged)
		}
	}
}

// taken reports whether a rename candidate is occupied. A destination this
// package recorded for the same component is free, so renamed installs are
// reused on reinstall.
func (i *Installer) taken(p *plan, w *write, d paths.Destination) bool {
	if p.planned[d.Key()] {
		return true
	}
	rel := i.project.Rel(d.Path)
	if owner, ok := p.state.Owner(rel, d.Section); ok {
		if owner != p.pkg.Name {
			return true
		}
		prev, _ := p.previous(rel, d.Section)
		return prev.Component != w.component.Name || prev.Kind != w.component.Kind
	}
	if !d.Shared() {
		_, err := i.fs.Stat(d.Path)
		return err == nil
	}
	content, err := i.readExisting(d.Path)
	if err != nil || content == nil {
		return err != nil
	}
	_, ok, err := adapter.Fingerprint(content, d)
	return ok || err != nil
}

func (i *Installer) render(w *write, existing []byte) (adapter.Rendered, error) {
	source := w.source
	if w.merged != nil {
		if !w.dest.Shared() {
			return adapter.Rendered{Content: w.merged, Fingerprint: w.merged, Strategy: adapter.StrategyMerged}, nil
		}
		source = w.merged
	}
	r, err := adapter.Render(adapter.Request{
		Component:   w.component,
		Tool:        w.tools[0],
		Destination: w.dest,
		Source:      source,
		Existing:    existing,
		Env:         w.env,
	})
	if err != nil {
		return adapter.Rendered{}, err
	}
	if w.merged != nil {
		r.Strategy = adapter.StrategyMerged
	}
	return r, nil
}

// newFiles returns the tracker entries a clean run leaves per tool.
func (i *Installer) newFiles(p *plan, written func(*write) bool) map[types.ToolID][]tracker.InstalledFile {
	out := make(map[types.ToolID][]tracker.InstalledFile)
	for _, w := range p.writes {
		if w.done || !(w.unchanged || written(w)) {
			continue
		}
		f := tracker.InstalledFile{
			Path:      i.project.Rel(w.dest.Path),
			Section:   w.dest.Section,
			Checksum:  w.checksum,
			Kind:      w.component.Kind,
			Component: w.component.Name,
		}
		for _, tool := range w.tools {
			out[tool] = append(out[tool], f)
		}
	}
	for tool, files := range p.carried {
		out[tool] = append(out[tool], files...)
	}
	return out
}

// staleFiles lists destinations the previous install of the package
// recorded for the run's tools that this run no longer produces.
func (i *Installer) staleFiles(p *plan) []staleFile {
	rec, ok := p.state[p.pkg.Name]
	if !ok {
		return nil
	}
	current := i.newFiles(p, func(w *write) bool { return true })

	inRun := make(map[types.ToolID]bool, len(p.tools))
	for _, t := range p.tools {
		inRun[t] = true
	}
	referenced := make(map[string]bool)
	for _, files := range current {
		for _, f := range files {
			referenced[f.Key()] = true
		}
	}
	for name, other := range p.state {
		for tool, tr := range other.Tools {
			if name == p.pkg.Name && inRun[tool] {
				continue
			}
			for _, f := range tr.Files {
				referenced[f.Key()] = true
			}
		}
	}

	var out []staleFile
	seen := make(map[string]bool)
	for _, tool := range rec.ToolIDs() {
		if !inRun[tool] {
			continue
		}
		for _, f := range tracker.Stale(rec.Tools[tool].Files, current[tool]) {
			if seen[f.Key()] {
				continue
			}
			seen[f.Key()] = true
			dest, err := f.Destination(i.project.Root, tool)
			if err != nil {
				i.logger.Warn().Err(err).Str("path", f.Path).Msg("Cannot resolve stale destination")
				continue
			}
			out = append(out, staleFile{file: f, tool: tool, dest: dest, keep: referenced[f.Key()]})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].file.Key() < out[b].file.Key() })
	return out
}
