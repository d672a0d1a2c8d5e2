// pkg/paths/paths_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real temp dirs for git discovery
// PURPOSE: Test destination resolution, name validation and project context

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/work/project"

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		tool        types.ToolID
		component   manifest.Component
		wantPath    string
		wantSection string
	}{
		{
			name:      "claude instruction",
			tool:      types.ToolClaude,
			component: manifest.Component{Kind: types.KindInstruction, Name: "code-style"},
			wantPath:  root + "/.claude/rules/code-style.md",
		},
		{
			name:      "cursor uses mdc",
			tool:      types.ToolCursor,
			component: manifest.Component{Kind: types.KindPractice, Name: "code-style"},
			wantPath:  root + "/.cursor/rules/code-style.mdc",
		},
		{
			name:      "copilot multi-part extension",
			tool:      types.ToolCopilot,
			component: manifest.Component{Kind: types.KindInstruction, Name: "testing"},
			wantPath:  root + "/.github/instructions/testing.instructions.md",
		},
		{
			name:      "hook keeps source extension",
			tool:      types.ToolClaude,
			component: manifest.Component{Kind: types.KindHook, Name: "pre", File: "hooks/pre.sh"},
			wantPath:  root + "/.claude/hooks/pre.sh",
		},
		{
			name:        "single file section",
			tool:        types.ToolCodex,
			component:   manifest.Component{Kind: types.KindInstruction, Name: "code-style"},
			wantPath:    root + "/AGENTS.md",
			wantSection: "code-style",
		},
		{
			name:        "mcp config entry",
			tool:        types.ToolCursor,
			component:   manifest.Component{Kind: types.KindMCPServer, Name: "github"},
			wantPath:    root + "/.cursor/mcp.json",
			wantSection: "github",
		},
		{
			name:      "resource at declared path",
			tool:      types.ToolZed,
			component: manifest.Component{Kind: types.KindResource, Name: "ec", InstallPath: "config/.editorconfig"},
			wantPath:  root + "/config/.editorconfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := registry.InstallRuleFor(tt.tool, tt.component.Kind)
			require.NoError(t, err)

			dest, err := Resolve(root, tt.tool, tt.component, rule)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, dest.Path)
			assert.Equal(t, tt.wantSection, dest.Section)
			assert.Equal(t, tt.wantSection != "", dest.Shared())
			assert.Equal(t, rule, dest.Rule)
		})
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	tests := []struct {
		name      string
		component manifest.Component
		rule      registry.InstallRule
	}{
		{"dotdot name", manifest.Component{Kind: types.KindInstruction, Name: "../../etc/passwd"}, registry.OneFilePerItem{Directory: ".claude/rules", Extension: ".md"}},
		{"absolute name", manifest.Component{Kind: types.KindInstruction, Name: "/etc/passwd"}, registry.OneFilePerItem{Directory: ".claude/rules", Extension: ".md"}},
		{"separator in name", manifest.Component{Kind: types.KindInstruction, Name: "a/b"}, registry.OneFilePerItem{Directory: ".claude/rules", Extension: ".md"}},
		{"empty name", manifest.Component{Kind: types.KindInstruction, Name: ""}, registry.SectionInSingleFile{Path: "AGENTS.md"}},
		{"section traversal", manifest.Component{Kind: types.KindInstruction, Name: ".."}, registry.SectionInSingleFile{Path: "AGENTS.md"}},
		{"install path escapes", manifest.Component{Kind: types.KindResource, Name: "r", InstallPath: "../outside.txt"}, registry.DeclaredPath{}},
		{"absolute install path", manifest.Component{Kind: types.KindResource, Name: "r", InstallPath: "/etc/hosts"}, registry.DeclaredPath{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(root, types.ToolClaude, tt.component, tt.rule)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrPathInvalid), "got %v", err)
			assert.Equal(t, "claude", errors.GetErrorDetails(err)["tool"])
		})
	}
}

func TestValidateComponentName(t *testing.T) {
	valid := []string{"code-style", "testing_v2", "My Rule", ".hidden"}
	for _, name := range valid {
		assert.NoError(t, ValidateComponentName(name), name)
	}

	invalid := []string{"", " ", ".", "..", "a..b", "a/b", `a\b`, "/abs", "a:b", "a\x01b"}
	for _, name := range invalid {
		assert.Error(t, ValidateComponentName(name), "%q", name)
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("/a/b", "/a/b"))
	assert.True(t, Within("/a/b", "/a/b/c/d"))
	assert.False(t, Within("/a/b", "/a/bc"))
	assert.False(t, Within("/a/b", "/a"))
	assert.False(t, Within("/a/b", "/a/b/../c"))
}

func TestRenamedPath(t *testing.T) {
	assert.Equal(t, "/p/.cursor/rules/code-style-1.mdc", RenamedPath("/p/.cursor/rules/code-style.mdc", 1, ".mdc"))
	assert.Equal(t, "/p/x/testing-2.instructions.md", RenamedPath("/p/x/testing.instructions.md", 2, ".instructions.md"))
	assert.Equal(t, "/p/hooks/pre-3.sh", RenamedPath("/p/hooks/pre.sh", 3, ""))
}

func TestNewProjectContext(t *testing.T) {
	ctx, err := NewProjectContext(root, ContextOptions{})
	require.NoError(t, err)
	assert.Equal(t, root, ctx.Root)
	assert.Equal(t, root+"/.devsync/installations.json", ctx.TrackerPath)
	assert.Equal(t, root+"/.devsync/backups", ctx.BackupDir)

	ctx, err = NewProjectContext(root, ContextOptions{
		TrackerFile: "state/tracker.json",
		BackupDir:   "/var/backups/devsync",
		Tools:       []types.ToolID{types.ToolCursor},
	})
	require.NoError(t, err)
	assert.Equal(t, root+"/state/tracker.json", ctx.TrackerPath)
	assert.Equal(t, "/var/backups/devsync", ctx.BackupDir)
	assert.Equal(t, []types.ToolID{types.ToolCursor}, ctx.Tools)

	assert.Equal(t, ".cursor/rules/a.mdc", ctx.Rel(root+"/.cursor/rules/a.mdc"))
	assert.Equal(t, "/elsewhere/x", ctx.Rel("/elsewhere/x"))
	assert.Equal(t, root+"/AGENTS.md", ctx.Abs("AGENTS.md"))
}

func TestFindProjectRoot(t *testing.T) {
	t.Run("git repository", func(t *testing.T) {
		dir, err := filepath.EvalSymlinks(t.TempDir())
		require.NoError(t, err)
		_, err = git.PlainInit(dir, false)
		require.NoError(t, err)

		sub := filepath.Join(dir, "src", "pkg")
		require.NoError(t, os.MkdirAll(sub, 0755))

		got, err := FindProjectRoot(sub)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("no repository falls back to start", func(t *testing.T) {
		dir, err := filepath.EvalSymlinks(t.TempDir())
		require.NoError(t, err)

		got, err := FindProjectRoot(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})
}

func TestUserConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, "/cfg/devsync/config.toml", UserConfigPath())
}
