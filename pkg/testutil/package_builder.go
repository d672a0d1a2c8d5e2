package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// PackageBuilder declares a file-copy package and writes it to disk.
type PackageBuilder struct {
	t    *testing.T
	Dir  string
	doc  map[string]interface{}
	comp map[string][]map[string]interface{}
	// files maps package-relative paths to their content.
	files map[string]string
}

// NewPackage starts a package named name at version, stored under
// parent/name.
func NewPackage(t *testing.T, parent, name, version string) *PackageBuilder {
	t.Helper()
	return &PackageBuilder{
		t:   t,
		Dir: filepath.Join(parent, name),
		doc: map[string]interface{}{
			"name":        name,
			"version":     version,
			"description": "test package " + name,
		},
		comp:  make(map[string][]map[string]interface{}),
		files: make(map[string]string),
	}
}

// Set sets a top-level manifest field such as namespace or author.
func (b *PackageBuilder) Set(key string, value interface{}) *PackageBuilder {
	b.doc[key] = value
	return b
}

func (b *PackageBuilder) add(section string, entry map[string]interface{}, tools []types.ToolID) {
	if len(tools) > 0 {
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = string(t)
		}
		entry["supported_tools"] = names
	}
	b.comp[section] = append(b.comp[section], entry)
}

// Instruction adds an instruction stored at instructions/<name>.md.
func (b *PackageBuilder) Instruction(name, content string, tools ...types.ToolID) *PackageBuilder {
	file := "instructions/" + name + ".md"
	b.files[file] = content
	b.add("instructions", map[string]interface{}{"name": name, "file": file}, tools)
	return b
}

// Practice adds a file-less practice rendered from intent and principles.
func (b *PackageBuilder) Practice(name, intent string, principles ...string) *PackageBuilder {
	entry := map[string]interface{}{"name": name, "intent": intent}
	if len(principles) > 0 {
		entry["principles"] = principles
	}
	b.add("practices", entry, nil)
	return b
}

// MCPServer adds an MCP server. Each credential name is declared required.
func (b *PackageBuilder) MCPServer(name, command string, args []string, credentials ...string) *PackageBuilder {
	entry := map[string]interface{}{"name": name, "command": command}
	if len(args) > 0 {
		entry["args"] = args
	}
	if len(credentials) > 0 {
		var creds []map[string]interface{}
		for _, c := range credentials {
			creds = append(creds, map[string]interface{}{"name": c, "required": true})
		}
		entry["credentials"] = creds
	}
	b.add("mcp_servers", entry, nil)
	return b
}

// Hook adds a hook script stored at hooks/<file>.
func (b *PackageBuilder) Hook(name, file, content string) *PackageBuilder {
	path := "hooks/" + file
	b.files[path] = content
	b.add("hooks", map[string]interface{}{"name": name, "file": path, "hook_type": "pre-commit"}, nil)
	return b
}

// Command adds a slash command stored at commands/<name>.md.
func (b *PackageBuilder) Command(name, content string) *PackageBuilder {
	path := "commands/" + name + ".md"
	b.files[path] = content
	b.add("commands", map[string]interface{}{"name": name, "file": path}, nil)
	return b
}

// Resource adds a resource installed at installPath.
func (b *PackageBuilder) Resource(name, installPath, content string) *PackageBuilder {
	path := "resources/" + filepath.Base(installPath)
	b.files[path] = content
	b.add("resources", map[string]interface{}{"name": name, "file": path, "install_path": installPath}, nil)
	return b
}

// Build writes the manifest and component files and returns the package
// directory.
func (b *PackageBuilder) Build() string {
	b.t.Helper()

	require.NoError(b.t, os.RemoveAll(b.Dir))
	require.NoError(b.t, os.MkdirAll(b.Dir, 0755))

	doc := make(map[string]interface{}, len(b.doc)+1)
	for k, v := range b.doc {
		doc[k] = v
	}
	if len(b.comp) > 0 {
		comps := make(map[string]interface{}, len(b.comp))
		for k, v := range b.comp {
			comps[k] = v
		}
		doc["components"] = comps
	}
	data, err := yaml.Marshal(doc)
	require.NoError(b.t, err)
	require.NoError(b.t, os.WriteFile(filepath.Join(b.Dir, manifest.ManifestFile), data, 0644))

	for rel, content := range b.files {
		path := filepath.Join(b.Dir, filepath.FromSlash(rel))
		require.NoError(b.t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(b.t, os.WriteFile(path, []byte(content), 0644))
	}
	return b.Dir
}

// Load builds the package and parses it.
func (b *PackageBuilder) Load() *manifest.Package {
	b.t.Helper()
	dir := b.Build()
	pkg, err := manifest.Load(filesystem.NewOS(), dir)
	require.NoError(b.t, err)
	return pkg
}
