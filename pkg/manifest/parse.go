package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/types"
	"gopkg.in/yaml.v3"
)

type rawManifest struct {
	FormatVersion string         `yaml:"format_version"`
	Name          string         `yaml:"name"`
	Version       string         `yaml:"version"`
	Description   string         `yaml:"description"`
	Author        string         `yaml:"author"`
	License       string         `yaml:"license"`
	Namespace     string         `yaml:"namespace"`
	Practices     []rawPractice  `yaml:"practices"`
	MCPServers    []rawMCPServer `yaml:"mcp_servers"`
	Components    *rawComponents `yaml:"components"`
}

type rawComponents struct {
	Practices    []rawPractice  `yaml:"practices"`
	Instructions []rawFile      `yaml:"instructions"`
	MCPServers   []rawMCPServer `yaml:"mcp_servers"`
	Hooks        []rawFile      `yaml:"hooks"`
	Commands     []rawFile      `yaml:"commands"`
	Resources    []rawResource  `yaml:"resources"`
}

type rawFile struct {
	Name           string   `yaml:"name"`
	File           string   `yaml:"file"`
	Description    string   `yaml:"description"`
	Tags           []string `yaml:"tags"`
	HookType       string   `yaml:"hook_type"`
	CommandType    string   `yaml:"command_type"`
	SupportedTools []string `yaml:"supported_tools"`
}

type rawPractice struct {
	Name                string   `yaml:"name"`
	Description         string   `yaml:"description"`
	Intent              string   `yaml:"intent"`
	Principles          []string `yaml:"principles"`
	EnforcementPatterns []string `yaml:"enforcement_patterns"`
	Examples            []string `yaml:"examples"`
	Tags                []string `yaml:"tags"`
	File                string   `yaml:"file"`
	SourceFile          string   `yaml:"source_file"`
	SupportedTools      []string `yaml:"supported_tools"`
}

type rawMCPServer struct {
	Name           string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Command        string            `yaml:"command"`
	Args           []string          `yaml:"args"`
	Env            map[string]string `yaml:"env"`
	Credentials    []rawCredential   `yaml:"credentials"`
	File           string            `yaml:"file"`
	SupportedTools []string          `yaml:"supported_tools"`
}

type rawCredential struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Required    *bool   `yaml:"required"`
	Default     *string `yaml:"default"`
}

type rawResource struct {
	Name           string   `yaml:"name"`
	File           string   `yaml:"file"`
	Description    string   `yaml:"description"`
	InstallPath    string   `yaml:"install_path"`
	Checksum       string   `yaml:"checksum"`
	Size           int64    `yaml:"size"`
	Tags           []string `yaml:"tags"`
	SupportedTools []string `yaml:"supported_tools"`
}

// Load finds the manifest inside dir, preferring the current file name over
// the legacy one, and parses it.
func Load(fs types.FS, dir string) (*Package, error) {
	for _, name := range []string{ManifestFile, LegacyManifestFile} {
		path := filepath.Join(dir, name)
		data, err := fs.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrManifestNotFound, "cannot read %s", path)
		}
		pkg, err := Parse(data, dir, fs)
		if err != nil {
			return nil, err
		}
		if name == LegacyManifestFile && pkg.FormatVersion == "" {
			pkg.FormatVersion = "1.0"
		}
		return pkg, nil
	}
	return nil, errors.Newf(errors.ErrManifestNotFound,
		"no manifest found in %s (expected %s or %s)", dir, ManifestFile, LegacyManifestFile).
		WithDetail("dir", dir)
}

// Parse decodes manifest bytes, normalizes both schema variants and
// validates the result. root is the package directory used for file checks.
func Parse(data []byte, root string, fs types.FS) (*Package, error) {
	logger := logging.GetLogger("manifest")

	var raw rawManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestParse, "malformed manifest")
	}

	pkg := &Package{
		FormatVersion: raw.FormatVersion,
		Name:          raw.Name,
		Version:       raw.Version,
		Description:   raw.Description,
		Author:        raw.Author,
		License:       raw.License,
		Namespace:     raw.Namespace,
		Root:          root,
	}
	if pkg.FormatVersion == "" {
		if raw.Components != nil && len(raw.Practices) == 0 && len(raw.MCPServers) == 0 {
			pkg.FormatVersion = "1.0"
		} else {
			pkg.FormatVersion = "2.0"
		}
	}

	for _, p := range raw.Practices {
		pkg.Components = append(pkg.Components, p.component())
	}
	if raw.Components != nil {
		for _, p := range raw.Components.Practices {
			pkg.Components = append(pkg.Components, p.component())
		}
		for _, f := range raw.Components.Instructions {
			pkg.Components = append(pkg.Components, f.component(types.KindInstruction))
		}
	}
	for _, m := range raw.MCPServers {
		pkg.Components = append(pkg.Components, m.component())
	}
	if raw.Components != nil {
		for _, m := range raw.Components.MCPServers {
			pkg.Components = append(pkg.Components, m.component())
		}
		for _, f := range raw.Components.Hooks {
			pkg.Components = append(pkg.Components, f.component(types.KindHook))
		}
		for _, f := range raw.Components.Commands {
			pkg.Components = append(pkg.Components, f.component(types.KindCommand))
		}
		for _, r := range raw.Components.Resources {
			pkg.Components = append(pkg.Components, r.component())
		}
	}

	if err := validate(pkg, fs); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("pkg", pkg.Name).
		Str("version", pkg.Version).
		Str("format", pkg.FormatVersion).
		Int("components", len(pkg.Components)).
		Msg("Parsed manifest")

	return pkg, nil
}

func toolIDs(names []string) []types.ToolID {
	if len(names) == 0 {
		return nil
	}
	out := make([]types.ToolID, 0, len(names))
	for _, n := range names {
		out = append(out, types.ToolID(n))
	}
	return out
}

func (r rawFile) component(kind types.Kind) Component {
	return Component{
		Kind:           kind,
		Name:           r.Name,
		Description:    r.Description,
		File:           r.File,
		Tags:           r.Tags,
		HookType:       r.HookType,
		CommandType:    r.CommandType,
		SupportedTools: toolIDs(r.SupportedTools),
	}
}

func (r rawPractice) component() Component {
	file := r.File
	if file == "" {
		file = r.SourceFile
	}
	return Component{
		Kind:                types.KindPractice,
		Name:                r.Name,
		Description:         r.Description,
		File:                file,
		Tags:                r.Tags,
		Intent:              r.Intent,
		Principles:          r.Principles,
		EnforcementPatterns: r.EnforcementPatterns,
		Examples:            r.Examples,
		SupportedTools:      toolIDs(r.SupportedTools),
	}
}

func (r rawMCPServer) component() Component {
	creds := make([]CredentialDescriptor, 0, len(r.Credentials))
	for _, c := range r.Credentials {
		creds = append(creds, c.descriptor())
	}
	return Component{
		Kind:           types.KindMCPServer,
		Name:           r.Name,
		Description:    r.Description,
		File:           r.File,
		Command:        r.Command,
		Args:           r.Args,
		Env:            r.Env,
		Credentials:    creds,
		SupportedTools: toolIDs(r.SupportedTools),
	}
}

func (r rawResource) component() Component {
	return Component{
		Kind:           types.KindResource,
		Name:           r.Name,
		Description:    r.Description,
		File:           r.File,
		InstallPath:    r.InstallPath,
		Checksum:       r.Checksum,
		Size:           r.Size,
		Tags:           r.Tags,
		SupportedTools: toolIDs(r.SupportedTools),
	}
}

// descriptor keeps the declared required flag so validation can reject a
// required credential with a default. When the flag is omitted, a
// credential is required unless it carries a default.
func (r rawCredential) descriptor() CredentialDescriptor {
	required := r.Default == nil
	if r.Required != nil {
		required = *r.Required
	}
	return CredentialDescriptor{
		Name:        r.Name,
		Description: r.Description,
		Required:    required,
		Default:     r.Default,
	}
}

func (c CredentialDescriptor) String() string {
	if c.Required {
		return fmt.Sprintf("%s (required)", c.Name)
	}
	return c.Name
}
