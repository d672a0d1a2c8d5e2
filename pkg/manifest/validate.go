package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// problems accumulates validation failures so the user sees all of them at
// once instead of fixing a manifest one error per run.
type problems []string

func (p *problems) add(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err(name string) error {
	if len(p) == 0 {
		return nil
	}
	label := name
	if label == "" {
		label = "<unnamed>"
	}
	return errors.Newf(errors.ErrManifestInvalid, "invalid manifest for package %s: %s",
		label, strings.Join(p, "; ")).
		WithDetail("package", name).
		WithDetail("problems", []string(p))
}

func validate(pkg *Package, fs types.FS) error {
	var errs problems

	if strings.TrimSpace(pkg.Name) == "" {
		errs.add("name is required")
	}
	if strings.TrimSpace(pkg.Description) == "" {
		errs.add("description is required")
	}
	if strings.TrimSpace(pkg.Version) == "" {
		errs.add("version is required")
	} else if v, err := semver.StrictNewVersion(pkg.Version); err != nil {
		errs.add("version %q is not valid semver: %v", pkg.Version, err)
	} else {
		pkg.semver = v
	}

	seen := make(map[types.Kind]map[string]bool)
	for i, c := range pkg.Components {
		where := fmt.Sprintf("%s[%d]", c.Kind, i)
		if c.Name != "" {
			where = fmt.Sprintf("%s %q", c.Kind, c.Name)
		}

		if strings.TrimSpace(c.Name) == "" {
			errs.add("%s: name is required", where)
		} else {
			if seen[c.Kind] == nil {
				seen[c.Kind] = make(map[string]bool)
			}
			if seen[c.Kind][c.Name] {
				errs.add("%s: duplicate name", where)
			}
			seen[c.Kind][c.Name] = true
		}

		for _, tool := range c.SupportedTools {
			if _, ok := registry.Lookup(tool); !ok {
				errs.add("%s: unknown tool %q in supported_tools", where, tool)
			}
		}

		validateFile(&errs, where, c, pkg.Root, fs)

		switch c.Kind {
		case types.KindMCPServer:
			if c.Command == "" {
				errs.add("%s: command is required", where)
			}
			validateCredentials(&errs, where, c.Credentials)
		case types.KindResource:
			if c.InstallPath == "" {
				errs.add("%s: install_path is required", where)
			}
		case types.KindPractice:
			if c.File == "" && c.Intent == "" && len(c.Principles) == 0 {
				errs.add("%s: needs a file or an intent", where)
			}
		}
	}

	return errs.err(pkg.Name)
}

func validateFile(errs *problems, where string, c Component, root string, fs types.FS) {
	if c.File == "" {
		switch c.Kind {
		case types.KindInstruction, types.KindHook, types.KindCommand, types.KindResource:
			errs.add("%s: file is required", where)
		}
		return
	}
	if filepath.IsAbs(c.File) {
		errs.add("%s: file %q must be relative to the package", where, c.File)
		return
	}
	rel := filepath.Clean(filepath.FromSlash(c.File))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		errs.add("%s: file %q escapes the package directory", where, c.File)
		return
	}
	if fs == nil {
		return
	}

	path := c.SourcePath(root)
	info, err := fs.Stat(path)
	if err != nil {
		errs.add("%s: file %q not found", where, c.File)
		return
	}
	if info.IsDir() {
		errs.add("%s: file %q is a directory", where, c.File)
		return
	}

	if c.Kind != types.KindResource || (c.Checksum == "" && c.Size == 0) {
		return
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		errs.add("%s: cannot read %q: %v", where, c.File, err)
		return
	}
	if c.Checksum != "" && !hashutil.Equal(c.Checksum, hashutil.Checksum(data)) {
		errs.add("%s: checksum mismatch for %q", where, c.File)
	}
	if c.Size > 0 && int64(len(data)) != c.Size {
		errs.add("%s: size mismatch for %q: declared %d, actual %d", where, c.File, c.Size, len(data))
	}
}

func validateCredentials(errs *problems, where string, creds []CredentialDescriptor) {
	names := make(map[string]bool, len(creds))
	for _, cred := range creds {
		if cred.Name == "" {
			errs.add("%s: credential name is required", where)
			continue
		}
		if names[cred.Name] {
			errs.add("%s: duplicate credential %q", where, cred.Name)
		}
		names[cred.Name] = true
		if cred.Required && cred.Default != nil {
			errs.add("%s: credential %q is required and cannot have a default", where, cred.Name)
		}
	}
}
