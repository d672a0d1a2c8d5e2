package registry

import (
	"path/filepath"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/types"
)

// Lookup returns the capability entry of a tool.
func Lookup(tool types.ToolID) (Capability, bool) {
	c, err := capabilities.Get(string(tool))
	if err != nil {
		return Capability{}, false
	}
	return c, true
}

// Tools returns every registered tool, sorted by ID.
func Tools() []types.ToolID {
	names := capabilities.List()
	out := make([]types.ToolID, 0, len(names))
	for _, n := range names {
		out = append(out, types.ToolID(n))
	}
	return out
}

// Supports reports whether tool accepts components of kind. Unknown tools
// support nothing.
func Supports(tool types.ToolID, kind types.Kind) bool {
	c, ok := Lookup(tool)
	return ok && c.Supports(kind)
}

// InstallRuleFor returns the install rule of (tool, kind), or an
// UNSUPPORTED error.
func InstallRuleFor(tool types.ToolID, kind types.Kind) (InstallRule, error) {
	c, ok := Lookup(tool)
	if !ok {
		return nil, errors.Newf(errors.ErrUnsupported, "unknown tool %q", tool).
			WithDetail("tool", string(tool))
	}
	rule, ok := c.Rules[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrUnsupported, "%s does not support %s components", c.Name, kind).
			WithDetail("tool", string(tool)).
			WithDetail("kind", string(kind))
	}
	return rule, nil
}

// ToolsSupporting lists the tools that accept kind.
func ToolsSupporting(kind types.Kind) []types.ToolID {
	var out []types.ToolID
	for _, t := range Tools() {
		if Supports(t, kind) {
			out = append(out, t)
		}
	}
	return out
}

// FrontMatterFor returns the default front matter of a tool's rule files,
// or nil when the tool uses plain markdown.
func FrontMatterFor(tool types.ToolID) map[string]interface{} {
	c, ok := Lookup(tool)
	if !ok {
		return nil
	}
	return c.FrontMatter
}

// Validate checks a list of tool IDs against the registry.
func Validate(tools []types.ToolID) error {
	for _, t := range tools {
		if !capabilities.Has(string(t)) {
			return errors.Newf(errors.ErrInvalidInput, "unknown tool %q", t).
				WithDetail("tool", string(t))
		}
	}
	return nil
}

// Detect returns the tools whose marker paths exist under projectRoot.
func Detect(fs types.FS, projectRoot string) []types.ToolID {
	var out []types.ToolID
	for _, t := range Tools() {
		c, _ := Lookup(t)
		for _, m := range c.Markers {
			if _, err := fs.Stat(filepath.Join(projectRoot, filepath.FromSlash(m))); err == nil {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
