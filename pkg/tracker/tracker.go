// Package tracker keeps the per-project record of which package installed
// which files, so installs can be reconciled and uninstalled exactly.
//
// The record is one JSON document keyed by package name. Every
// read-modify-write happens under an exclusive file lock and is saved with
// a temp-file rename, so a crash leaves either the old or the new document.
package tracker

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// InstalledFile is one destination written by a package. Path is relative
// to the project root in slash form; Section is set for section-marker and
// config-entry destinations.
type InstalledFile struct {
	Path      string     `json:"path"`
	Section   string     `json:"section,omitempty"`
	Checksum  string     `json:"checksum"`
	Kind      types.Kind `json:"kind"`
	Component string     `json:"component"`
}

// Key identifies the destination the file entry occupies.
func (f InstalledFile) Key() string {
	if f.Section == "" {
		return f.Path
	}
	return f.Path + "#" + f.Section
}

// Destination rebuilds the resolved destination for tool under root.
func (f InstalledFile) Destination(root string, tool types.ToolID) (paths.Destination, error) {
	rule, err := registry.InstallRuleFor(tool, f.Kind)
	if err != nil {
		return paths.Destination{}, err
	}
	abs := f.Path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, filepath.FromSlash(f.Path))
	}
	return paths.Destination{Path: abs, Section: f.Section, Rule: rule}, nil
}

// ToolRecord lists what one package installed for one tool.
type ToolRecord struct {
	InstalledAt time.Time       `json:"installed_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Files       []InstalledFile `json:"files"`
}

// Record is the installation record of one package.
type Record struct {
	Version   string                       `json:"version"`
	Namespace string                       `json:"namespace,omitempty"`
	Tools     map[types.ToolID]*ToolRecord `json:"tools"`
}

// ToolIDs returns the tools the package is installed for, sorted.
func (r *Record) ToolIDs() []types.ToolID {
	ids := make([]types.ToolID, 0, len(r.Tools))
	for id := range r.Tools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Files returns every file of the record, optionally limited to tools.
func (r *Record) Files(tools ...types.ToolID) []InstalledFile {
	var out []InstalledFile
	for _, id := range r.ToolIDs() {
		if len(tools) > 0 && !containsTool(tools, id) {
			continue
		}
		out = append(out, r.Tools[id].Files...)
	}
	return out
}

func containsTool(tools []types.ToolID, id types.ToolID) bool {
	for _, t := range tools {
		if t == id {
			return true
		}
	}
	return false
}

// State is the whole tracker document.
type State map[string]*Record

// Packages returns the installed package names, sorted.
func (s State) Packages() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Owner returns the package that recorded the destination, if any.
func (s State) Owner(path, section string) (string, bool) {
	for _, name := range s.Packages() {
		for _, tr := range s[name].Tools {
			for _, f := range tr.Files {
				if f.Path == path && f.Section == section {
					return name, true
				}
			}
		}
	}
	return "", false
}

// Set replaces the files recorded for one tool of a package. An empty file
// list removes the tool, and a package without tools is dropped.
func (s State) Set(name, version, namespace string, tool types.ToolID, files []InstalledFile, now time.Time) {
	rec, ok := s[name]
	if !ok {
		rec = &Record{Tools: make(map[types.ToolID]*ToolRecord)}
		s[name] = rec
	}
	rec.Version = version
	rec.Namespace = namespace
	if rec.Tools == nil {
		rec.Tools = make(map[types.ToolID]*ToolRecord)
	}

	if len(files) == 0 {
		delete(rec.Tools, tool)
	} else {
		tr, ok := rec.Tools[tool]
		if !ok {
			tr = &ToolRecord{InstalledAt: now}
			rec.Tools[tool] = tr
		}
		tr.UpdatedAt = now
		tr.Files = sortedFiles(files)
	}

	if len(rec.Tools) == 0 {
		delete(s, name)
	}
}

// Drop removes a tool of a package, or the whole package when tool is
// empty. It reports whether anything was removed.
func (s State) Drop(name string, tool types.ToolID) bool {
	rec, ok := s[name]
	if !ok {
		return false
	}
	if tool == "" {
		delete(s, name)
		return true
	}
	if _, ok := rec.Tools[tool]; !ok {
		return false
	}
	delete(rec.Tools, tool)
	if len(rec.Tools) == 0 {
		delete(s, name)
	}
	return true
}

// Disown removes a destination from every package other than keep. Used
// when keep overwrote another package's file or section.
func (s State) Disown(path, section, keep string) {
	for name, rec := range s {
		if name == keep {
			continue
		}
		for tool, tr := range rec.Tools {
			files := tr.Files[:0]
			for _, f := range tr.Files {
				if f.Path != path || f.Section != section {
					files = append(files, f)
				}
			}
			tr.Files = files
			if len(files) == 0 {
				delete(rec.Tools, tool)
			}
		}
		if len(rec.Tools) == 0 {
			delete(s, name)
		}
	}
}

func sortedFiles(files []InstalledFile) []InstalledFile {
	out := append([]InstalledFile(nil), files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Stale returns the entries of previous whose destination is absent from
// current.
func Stale(previous, current []InstalledFile) []InstalledFile {
	keep := make(map[string]bool, len(current))
	for _, f := range current {
		keep[f.Key()] = true
	}
	var out []InstalledFile
	for _, f := range previous {
		if !keep[f.Key()] {
			out = append(out, f)
		}
	}
	return out
}

func notFound(name string) error {
	return errors.Newf(errors.ErrTrackerNotFound, "package %s is not installed", name).
		WithDetail("package", name)
}
