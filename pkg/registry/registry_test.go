// pkg/registry/registry_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Memory FS for detection
// PURPOSE: Test the capability table lookups and tool detection

package registry_test

import (
	"testing"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallRuleFor(t *testing.T) {
	tests := []struct {
		name string
		tool types.ToolID
		kind types.Kind
		want registry.InstallRule
	}{
		{
			name: "cursor rules use mdc",
			tool: types.ToolCursor,
			kind: types.KindInstruction,
			want: registry.OneFilePerItem{Directory: ".cursor/rules", Extension: ".mdc"},
		},
		{
			name: "claude rules",
			tool: types.ToolClaude,
			kind: types.KindInstruction,
			want: registry.OneFilePerItem{Directory: ".claude/rules", Extension: ".md"},
		},
		{
			name: "copilot instructions extension",
			tool: types.ToolCopilot,
			kind: types.KindPractice,
			want: registry.OneFilePerItem{Directory: ".github/instructions", Extension: ".instructions.md"},
		},
		{
			name: "codex uses AGENTS.md sections",
			tool: types.ToolCodex,
			kind: types.KindInstruction,
			want: registry.SectionInSingleFile{Path: "AGENTS.md", MarkerPrefix: "devsync"},
		},
		{
			name: "codex mcp goes to toml",
			tool: types.ToolCodex,
			kind: types.KindMCPServer,
			want: registry.ConfigEntry{Path: ".codex/config.toml", Key: "mcp_servers", Format: registry.FormatTOML},
		},
		{
			name: "copilot mcp uses servers key",
			tool: types.ToolCopilot,
			kind: types.KindMCPServer,
			want: registry.ConfigEntry{Path: ".vscode/mcp.json", Key: "servers", Format: registry.FormatJSON},
		},
		{
			name: "claude hooks keep source extension",
			tool: types.ToolClaude,
			kind: types.KindHook,
			want: registry.OneFilePerItem{Directory: ".claude/hooks"},
		},
		{
			name: "resources use declared path",
			tool: types.ToolAider,
			kind: types.KindResource,
			want: registry.DeclaredPath{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := registry.InstallRuleFor(tt.tool, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule)
			assert.True(t, registry.Supports(tt.tool, tt.kind))
		})
	}
}

func TestInstallRuleFor_Unsupported(t *testing.T) {
	_, err := registry.InstallRuleFor(types.ToolCursor, types.KindHook)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupported))
	assert.False(t, registry.Supports(types.ToolCursor, types.KindHook))

	_, err = registry.InstallRuleFor("notatool", types.KindInstruction)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupported))
	assert.False(t, registry.Supports("notatool", types.KindInstruction))
}

func TestTools(t *testing.T) {
	tools := registry.Tools()
	assert.Len(t, tools, 23)
	assert.IsIncreasing(t, tools)

	for _, tool := range tools {
		c, ok := registry.Lookup(tool)
		require.True(t, ok, tool)
		assert.NotEmpty(t, c.Name, tool)
		assert.NotEmpty(t, c.Markers, tool)
		assert.True(t, c.Supports(types.KindInstruction), "%s must accept instructions", tool)
		assert.True(t, c.Supports(types.KindResource), "%s must accept resources", tool)
	}
}

func TestToolsSupporting(t *testing.T) {
	assert.Equal(t, []types.ToolID{types.ToolClaude}, registry.ToolsSupporting(types.KindHook))
	assert.Equal(t, []types.ToolID{types.ToolClaude, types.ToolRoo}, registry.ToolsSupporting(types.KindCommand))
	assert.Contains(t, registry.ToolsSupporting(types.KindMCPServer), types.ToolZed)
	assert.NotContains(t, registry.ToolsSupporting(types.KindMCPServer), types.ToolAider)
}

func TestFrontMatterFor(t *testing.T) {
	assert.Equal(t, true, registry.FrontMatterFor(types.ToolCursor)["alwaysApply"])
	assert.Equal(t, "**", registry.FrontMatterFor(types.ToolCopilot)["applyTo"])
	assert.Nil(t, registry.FrontMatterFor(types.ToolClaude))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, registry.Validate([]types.ToolID{types.ToolCursor, types.ToolZed}))
	err := registry.Validate([]types.ToolID{types.ToolCursor, "vim"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestDetect(t *testing.T) {
	fs := filesystem.NewMemory()
	root := "/project"
	require.NoError(t, fs.MkdirAll(root+"/.cursor/rules", 0755))
	require.NoError(t, fs.WriteFile(root+"/CLAUDE.md", []byte("# notes"), 0644))
	require.NoError(t, fs.WriteFile(root+"/AGENTS.md", []byte(""), 0644))

	got := registry.Detect(fs, root)
	assert.Equal(t, []types.ToolID{types.ToolClaude, types.ToolCodex, types.ToolCursor}, got)
}

func TestDetect_Empty(t *testing.T) {
	fs := filesystem.NewMemory()
	require.NoError(t, fs.MkdirAll("/empty", 0755))
	assert.Empty(t, registry.Detect(fs, "/empty"))
}

func TestStore(t *testing.T) {
	s := registry.NewStore[int]()
	require.NoError(t, s.Register("b", 2))
	require.NoError(t, s.Register("a", 1))

	err := s.Register("a", 3)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
	assert.True(t, errors.IsErrorCode(s.Register("", 1), errors.ErrInvalidInput))

	v, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Get("missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Equal(t, []string{"a", "b"}, s.List())
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Has("b"))

	assert.Panics(t, func() { registry.MustRegister(s, "a", 9) })
}
