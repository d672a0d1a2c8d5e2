package testutil

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
	"testing"

	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageBuilder(t *testing.T) {
	env := NewTestEnvironment(t, types.ToolClaude)

	pkg := NewPackage(t, env.Packages, "toolbox", "1.2.0").
		Set("namespace", "acme").
		Instruction("code-style", "Use gofmt.\n", types.ToolClaude).
		Practice("reviews", "Keep reviews small", "One concern per change").
		MCPServer("github", "npx", []string{"-y"}, "GITHUB_TOKEN").
		Hook("format", "format.sh", "#!/bin/sh\n").
		Command("review", "Review the diff.\n").
		Resource("schema", "docs/schema.json", "{}\n").
		Load()

	assert.Equal(t, "toolbox", pkg.Name)
	assert.Equal(t, "1.2.0", pkg.Version)
	assert.Equal(t, "acme", pkg.Namespace)
	assert.Len(t, pkg.Components, 6)

	instr, ok := pkg.Find(types.KindInstruction, "code-style")
	require.True(t, ok)
	assert.Equal(t, []types.ToolID{types.ToolClaude}, instr.SupportedTools)
	content, err := instr.Content(env.FS, pkg.Root)
	require.NoError(t, err)
	assert.Equal(t, "Use gofmt.\n", string(content))

	mcp, ok := pkg.Find(types.KindMCPServer, "github")
	require.True(t, ok)
	require.Len(t, mcp.Credentials, 1)
	assert.True(t, mcp.Credentials[0].Required)

	res, ok := pkg.Find(types.KindResource, "schema")
	require.True(t, ok)
	assert.Equal(t, "docs/schema.json", res.InstallPath)
}

func TestFailingFS(t *testing.T) {
	base := filesystem.NewMemory()
	require.NoError(t, base.MkdirAll("/p", 0755))
	ffs := NewFailingFS(base, 1, func(name string) bool { return strings.HasSuffix(name, ".md") })

	require.NoError(t, ffs.WriteFile("/p/a.md", []byte("a"), 0644))
	require.NoError(t, ffs.WriteFile("/p/other.txt", []byte("x"), 0644), "unmatched writes do not count")

	err := ffs.WriteFile("/p/b.md", []byte("b"), 0644)
	require.Error(t, err)
	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.True(t, errors.Is(err, syscall.ENOSPC))
	assert.Equal(t, []string{"/p/b.md"}, ffs.Failed())

	_, err = base.Stat("/p/b.md")
	assert.Error(t, err, "failed writes leave nothing behind")
	data, err := ffs.ReadFile("/p/a.md")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	ffs.FailRemove = func(name string) bool { return name == "/p/a.md" }
	assert.True(t, errors.Is(ffs.Remove("/p/a.md"), syscall.EACCES))
	require.NoError(t, ffs.Remove("/p/other.txt"))
	assert.Equal(t, []string{"/p/b.md", "/p/a.md"}, ffs.Failed())
}

func TestEnvironmentSnapshot(t *testing.T) {
	env := NewTestEnvironment(t)
	env.WriteFile("a/b.md", "b")
	env.WriteFile(".devsync/installations.json", "{}")

	assert.Equal(t, map[string]string{"a/b.md": "b"}, env.Snapshot())
	assert.True(t, env.Exists("a/b.md"))
	env.AssertProjectFile("a/b.md", "b")
	env.AssertNoProjectFile("missing.md")
	assert.Equal(t, "sha256:", GetTestChecksum("x")[:7])
}
