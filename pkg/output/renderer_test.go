// pkg/output/renderer_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (bytes.Buffer)
// PURPOSE: Test text and JSON rendering of command results

package output

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/backup"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/tracker"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *installer.Result {
	return &installer.Result{
		Package: "style-guide",
		Version: "1.2.0",
		Installed: []installer.Item{
			{Component: "code-style", Kind: types.KindPractice, Tool: types.ToolClaude,
				Path: ".claude/rules/code-style.md", Strategy: adapter.StrategyVerbatim},
			{Component: "testing", Kind: types.KindInstruction, Tool: types.ToolCodex,
				Path: "AGENTS.md", Section: "testing", Unchanged: true},
		},
		Skipped: []installer.Item{
			{Component: "github", Kind: types.KindMCPServer, Tool: types.ToolCline, Reason: "unsupported"},
		},
		Failed: []installer.Item{
			{Component: "lint", Kind: types.KindInstruction, Tool: types.ToolClaude,
				Path: ".claude/rules/lint.md", ErrorKind: "write", Error: "disk full"},
		},
		BackupID: "2026-10-16T101500",
		Status:   installer.StatusFailed,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"term", FormatTerminal},
		{"TEXT", FormatText},
		{"plain", FormatText},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatText, DetectFormat(&bytes.Buffer{}), "non-file writers are plain")

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(&bytes.Buffer{}))
}

func TestRenderInstallText(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatText)

	require.NoError(t, r.Install(sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "style-guide 1.2.0")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, ".claude/rules/code-style.md")
	assert.Contains(t, out, "AGENTS.md#testing")
	assert.Contains(t, out, "up to date")
	assert.Contains(t, out, "unsupported")
	assert.Contains(t, out, "claude/lint: disk full")
	assert.Contains(t, out, "2 installed, 1 skipped, 1 failed")
	assert.Contains(t, out, "Backup: 2026-10-16T101500")
	assert.NotContains(t, out, "\x1b[", "text output has no escape codes")
}

func TestRenderInstallDryRun(t *testing.T) {
	var buf bytes.Buffer
	res := &installer.Result{Package: "p", Version: "1.0.0", DryRun: true, Status: installer.StatusComplete}

	require.NoError(t, New(&buf, FormatText).Install(res))
	assert.Contains(t, buf.String(), "p 1.0.0 (dry run)")
	assert.Contains(t, buf.String(), "0 installed")
}

func TestRenderInstallJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Install(sampleResult()))

	var got installer.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, installer.StatusFailed, got.Status)
	assert.Len(t, got.Installed, 2)
	assert.Equal(t, "write", got.Failed[0].ErrorKind)
	assert.Equal(t, "unsupported", got.Skipped[0].Reason)
}

func TestRenderUninstall(t *testing.T) {
	res := &installer.UninstallResult{
		Package: "style-guide",
		Version: "1.2.0",
		Removed: []installer.Item{{Component: "a", Kind: types.KindInstruction, Tool: types.ToolClaude, Path: ".claude/rules/a.md"}},
		Skipped: []installer.Item{{Component: "b", Kind: types.KindInstruction, Tool: types.ToolClaude, Path: ".claude/rules/b.md", Reason: installer.ReasonModified}},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatText).Uninstall(res))
	assert.Contains(t, buf.String(), ".claude/rules/a.md")
	assert.Contains(t, buf.String(), "modified")
	assert.Contains(t, buf.String(), "1 removed, 1 kept, 0 failed")
}

func TestRenderStatus(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, New(&buf, FormatText).Status(nil))
		assert.Contains(t, buf.String(), "No packages installed.")

		buf.Reset()
		require.NoError(t, New(&buf, FormatJSON).Status(nil))
		assert.JSONEq(t, "[]", buf.String())
	})

	t.Run("drift", func(t *testing.T) {
		pkgs := []installer.PackageStatus{{
			Name: "style-guide", Version: "1.2.0",
			Tools: []types.ToolID{types.ToolClaude, types.ToolCodex}, Files: 3,
			Drift: []tracker.Drift{{
				Package: "style-guide", Tool: types.ToolCodex, State: tracker.DriftModified,
				File: tracker.InstalledFile{Path: "AGENTS.md", Section: "testing"},
			}},
		}}
		var buf bytes.Buffer
		require.NoError(t, New(&buf, FormatText).Status(pkgs))
		out := buf.String()
		assert.Contains(t, out, "claude, codex")
		assert.Contains(t, out, "1 drifted")
		assert.Contains(t, out, "modified AGENTS.md#testing (codex)")
	})
}

func TestRenderBackups(t *testing.T) {
	sets := []backup.Set{{
		ID: "2026-10-16T101500", Operation: "install",
		CreatedAt: time.Date(2026, 10, 16, 10, 15, 0, 0, time.UTC),
		Files:     []backup.BackupFile{{OriginalPath: "AGENTS.md", Size: 2048}},
	}}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatText).Backups(sets))
	assert.Contains(t, buf.String(), "2026-10-16T101500")
	assert.Contains(t, buf.String(), "install")
	assert.Contains(t, buf.String(), "2.0 KiB")

	buf.Reset()
	require.NoError(t, New(&buf, FormatText).Backups(nil))
	assert.Contains(t, buf.String(), "No backups.")
}

func TestRenderRestoreAndCleanup(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatText)

	require.NoError(t, r.Restore(&backup.RestoreResult{
		SetID: "a", PreRestoreID: "b",
		Files: []backup.BackupFile{{OriginalPath: ".mcp.json"}},
	}))
	assert.Contains(t, buf.String(), "Restored 1 file(s) from a")
	assert.Contains(t, buf.String(), ".mcp.json")
	assert.Contains(t, buf.String(), "Previous state saved as b")

	buf.Reset()
	require.NoError(t, r.Cleanup([]string{"old-1", "old-2"}, true))
	assert.Contains(t, buf.String(), "Would delete 2 backup(s)")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Cleanup(nil, false))
	assert.JSONEq(t, `{"deleted": [], "dry_run": false}`, buf.String())
}

func TestRenderTools(t *testing.T) {
	claude, ok := registry.Lookup(types.ToolClaude)
	require.True(t, ok)
	cline, ok := registry.Lookup(types.ToolCline)
	require.True(t, ok)
	tools := []ToolInfo{NewToolInfo(claude, true), NewToolInfo(cline, false)}

	assert.Contains(t, tools[0].Kinds, string(types.KindMCPServer))
	assert.NotContains(t, tools[1].Kinds, string(types.KindMCPServer))

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatText).Tools(tools, true))
	out := buf.String()
	assert.Contains(t, out, "Claude Code")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, ".claude/rules")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Tools(tools, false))
	var decoded []ToolInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, types.ToolClaude, decoded[0].ID)
	assert.True(t, decoded[0].Detected)
}

func TestRenderError(t *testing.T) {
	err := errors.New(errors.ErrCredential, "GITHUB_TOKEN is not set").WithDetail("credential", "GITHUB_TOKEN")

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Error(err))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "CREDENTIAL", payload["code"])
	assert.Equal(t, "credential", payload["kind"])
	assert.Equal(t, map[string]interface{}{"credential": "GITHUB_TOKEN"}, payload["details"])

	buf.Reset()
	require.NoError(t, New(&buf, FormatText).Error(stderrors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestRenderMessageAndMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatText)
	require.NoError(t, r.Message("installed %d packages", 2))
	assert.Equal(t, "installed 2 packages\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Markdown("code-style", "# Code Style", 80))
	assert.Equal(t, "# Code Style\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Markdown("code-style", "# Code Style\n", 80))
	assert.JSONEq(t, `{"name": "code-style", "content": "# Code Style\n"}`, buf.String())
}

func TestRenderMarkdownFallsBack(t *testing.T) {
	assert.Equal(t, "# x", renderMarkdown("# x", "/does/not/exist.json", 0))
	assert.NotEmpty(t, renderMarkdown("# Title\n\nbody", "notty", 40))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KiB", humanSize(1536))
	assert.Equal(t, "3.0 MiB", humanSize(3*1024*1024))
}
