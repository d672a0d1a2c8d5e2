// Package manifest parses and validates package manifests.
//
// Two manifest shapes are accepted and normalized into one Package:
//
//   - declarative (devsync-package.yaml): top-level `practices` and
//     `mcp_servers`, optionally alongside `components`;
//   - file-copy (legacy ai-config-kit-package.yaml, or any manifest with a
//     `components` block): `components: {instructions, mcp_servers, hooks,
//     commands, resources}`.
//
// Parsing is pure apart from existence checks on referenced files and
// checksum verification of resources that declare one.
package manifest

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/arthur-debert/devsync/pkg/types"
)

const (
	// ManifestFile is the current manifest file name.
	ManifestFile = "devsync-package.yaml"
	// LegacyManifestFile is the file-copy manifest written by older releases.
	LegacyManifestFile = "ai-config-kit-package.yaml"
)

// Package is the in-memory representation of a package.
type Package struct {
	FormatVersion string
	Name          string
	Version       string
	Description   string
	Author        string
	License       string
	Namespace     string

	// Root is the package directory every Component.File is relative to.
	Root string

	Components []Component

	semver *semver.Version
}

// SemVer returns the parsed package version.
func (p *Package) SemVer() *semver.Version {
	return p.semver
}

// ByKind returns the components of one kind in manifest order.
func (p *Package) ByKind(kind types.Kind) []Component {
	var out []Component
	for _, c := range p.Components {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the component with the given kind and name.
func (p *Package) Find(kind types.Kind, name string) (Component, bool) {
	for _, c := range p.Components {
		if c.Kind == kind && c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// FindByName returns the first component with the given name, any kind.
func (p *Package) FindByName(name string) (Component, bool) {
	for _, c := range p.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Component is one typed unit of configuration. Fields not relevant to
// the component's Kind are left zero.
type Component struct {
	Kind        types.Kind
	Name        string
	Description string
	// File is relative to the package root. Optional for practices.
	File string
	Tags []string

	// SupportedTools restricts installation; empty means every tool whose
	// registry entry accepts Kind.
	SupportedTools []types.ToolID

	// Practice fields
	Intent              string
	Principles          []string
	EnforcementPatterns []string
	Examples            []string

	// Hook and command fields
	HookType    string
	CommandType string

	// MCP server fields
	Command     string
	Args        []string
	Env         map[string]string
	Credentials []CredentialDescriptor

	// Resource fields
	InstallPath string
	Checksum    string
	Size        int64
}

// AllowsTool reports whether the component's explicit restriction admits
// the tool.
func (c Component) AllowsTool(tool types.ToolID) bool {
	if len(c.SupportedTools) == 0 {
		return true
	}
	for _, t := range c.SupportedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// SourcePath returns the absolute path of the component's file, or "" for
// file-less components.
func (c Component) SourcePath(root string) string {
	if c.File == "" {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(c.File))
}

// Source reads the component's file bytes. File-less components return nil.
func (c Component) Source(fs types.FS, root string) ([]byte, error) {
	path := c.SourcePath(root)
	if path == "" {
		return nil, nil
	}
	return fs.ReadFile(path)
}

// CredentialDescriptor describes one environment value an MCP server needs.
type CredentialDescriptor struct {
	Name        string
	Description string
	Required    bool
	// Default is only meaningful when Required is false.
	Default *string
}
