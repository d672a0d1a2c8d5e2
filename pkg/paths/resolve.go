package paths

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// Destination is where one (component, tool) pair lands. Section is set for
// section-marker and config-entry rules, where Path is a shared file.
type Destination struct {
	Path    string
	Section string
	Rule    registry.InstallRule
}

// Shared reports whether the destination is a region of a shared file.
func (d Destination) Shared() bool {
	return d.Section != ""
}

// Key identifies the destination for de-duplication and locking.
func (d Destination) Key() string {
	if d.Section == "" {
		return d.Path
	}
	return d.Path + "#" + d.Section
}

// Resolve computes the destination of component for tool under rule.
// Invalid component names are rejected, never sanitized, so two distinct
// components can never silently collide on one path.
func Resolve(projectRoot string, tool types.ToolID, c manifest.Component, rule registry.InstallRule) (Destination, error) {
	var dest Destination
	switch r := rule.(type) {
	case registry.OneFilePerItem:
		if err := ValidateComponentName(c.Name); err != nil {
			return dest, withContext(err, tool, c)
		}
		ext := r.Extension
		if ext == "" {
			ext = filepath.Ext(c.File)
		}
		dest = Destination{
			Path: filepath.Join(projectRoot, filepath.FromSlash(r.Directory), c.Name+ext),
			Rule: rule,
		}
	case registry.SectionInSingleFile:
		if err := ValidateComponentName(c.Name); err != nil {
			return dest, withContext(err, tool, c)
		}
		dest = Destination{
			Path:    filepath.Join(projectRoot, filepath.FromSlash(r.Path)),
			Section: c.Name,
			Rule:    rule,
		}
	case registry.ConfigEntry:
		if err := ValidateComponentName(c.Name); err != nil {
			return dest, withContext(err, tool, c)
		}
		dest = Destination{
			Path:    filepath.Join(projectRoot, filepath.FromSlash(r.Path)),
			Section: c.Name,
			Rule:    rule,
		}
	case registry.DeclaredPath:
		if err := ValidateRelativePath(c.InstallPath); err != nil {
			return dest, withContext(err, tool, c)
		}
		dest = Destination{
			Path: filepath.Join(projectRoot, filepath.FromSlash(c.InstallPath)),
			Rule: rule,
		}
	default:
		return dest, errors.Newf(errors.ErrUnsupported, "unknown install rule %T", rule)
	}

	if !Within(projectRoot, dest.Path) {
		return Destination{}, withContext(
			errors.Newf(errors.ErrPathInvalid, "destination %s escapes the project root", dest.Path), tool, c)
	}
	return dest, nil
}

func withContext(err error, tool types.ToolID, c manifest.Component) error {
	de, ok := err.(*errors.DevsyncError)
	if !ok {
		de = errors.Wrap(err, errors.ErrPathInvalid, "invalid destination")
	}
	return de.WithDetail("tool", string(tool)).
		WithDetail("component", c.Name).
		WithDetail("kind", string(c.Kind))
}

// ValidateComponentName ensures a component name is a single safe path
// element. Names must:
// - Not be empty
// - Not contain path separators or traversal segments
// - Not be absolute
// - Not contain control or reserved characters
func ValidateComponentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrPathInvalid, "component name cannot be empty")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return errors.Newf(errors.ErrPathInvalid, "component name %q is an absolute path", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return errors.Newf(errors.ErrPathInvalid, "component name %q contains a traversal segment", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.Newf(errors.ErrPathInvalid, "component name %q contains a path separator", name)
	}
	const invalidChars = ":*?\"<>|"
	if strings.ContainsAny(name, invalidChars) {
		return errors.Newf(errors.ErrPathInvalid, "component name %q contains invalid characters: %s", name, invalidChars)
	}
	for _, r := range name {
		if r < 32 {
			return errors.Newf(errors.ErrPathInvalid, "component name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateRelativePath checks a declared install path: relative, no
// traversal segments, no null bytes.
func ValidateRelativePath(p string) error {
	if p == "" {
		return errors.New(errors.ErrPathInvalid, "install path cannot be empty")
	}
	if strings.Contains(p, "\x00") {
		return errors.New(errors.ErrPathInvalid, "install path contains null bytes")
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return errors.Newf(errors.ErrPathInvalid, "install path %q is absolute", p)
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return errors.Newf(errors.ErrPathInvalid, "install path %q contains a traversal segment", p)
		}
	}
	return nil
}

// Within reports whether path is root or lies below it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// RenamedPath returns {stem}-{n}{ext} for a one-file-per-item destination.
// Multi-part extensions such as .instructions.md are kept whole.
func RenamedPath(path string, n int, ext string) string {
	dir, base := filepath.Split(path)
	if ext == "" || !strings.HasSuffix(base, ext) {
		ext = filepath.Ext(base)
	}
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"-"+strconv.Itoa(n)+ext)
}
