// pkg/config/loader_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (temp dir), environment
// PURPOSE: Test configuration layering, env mapping and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithOptions(LoadOptions{SkipEnv: true})
	require.NoError(t, err)

	assert.Equal(t, conflicts.Prompt, cfg.Install.ConflictPolicy)
	assert.Equal(t, conflicts.Skip, cfg.Install.NonInteractivePolicy)
	assert.Empty(t, cfg.Install.Tools)
	assert.Equal(t, 4, cfg.Install.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Merge.Timeout)
	assert.False(t, cfg.MergeAvailable())
	assert.Equal(t, ".devsync/backups", cfg.Backup.Dir)
	assert.Equal(t, 20, cfg.Backup.Retain)
	assert.Equal(t, 720*time.Hour, cfg.Backup.MaxAge)
	assert.Equal(t, ".devsync/installations.json", cfg.Tracker.File)
	assert.Equal(t, 10*time.Second, cfg.Tracker.LockTimeout)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Empty(t, cfg.Sources)
}

func TestLoadLayers(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()

	userPath := filepath.Join(home, ".config", "devsync", "config.toml")
	writeConfig(t, userPath, `
[install]
conflict_policy = "overwrite"
tools = ["claude", "cursor"]

[merge]
command = ["llm-merge", "--quiet"]
timeout = "2m"
`)
	projectPath := filepath.Join(project, ".devsync.toml")
	writeConfig(t, projectPath, `
[install]
tools = ["codex"]

[backup]
retain = 5
`)

	t.Run("files", func(t *testing.T) {
		cfg, err := LoadWithOptions(LoadOptions{ProjectRoot: project, SkipEnv: true})
		require.NoError(t, err)

		assert.Equal(t, []string{userPath, projectPath}, cfg.Sources)
		assert.Equal(t, conflicts.Overwrite, cfg.Install.ConflictPolicy, "user layer")
		assert.Equal(t, []types.ToolID{types.ToolCodex}, cfg.ToolIDs(), "project replaces the list")
		assert.Equal(t, 5, cfg.Backup.Retain)
		assert.Equal(t, []string{"llm-merge", "--quiet"}, cfg.Merge.Command)
		assert.Equal(t, 2*time.Minute, cfg.Merge.Timeout)
		assert.True(t, cfg.MergeAvailable())
	})

	t.Run("env wins over files", func(t *testing.T) {
		t.Setenv("DEVSYNC_INSTALL_CONFLICT_POLICY", "Rename")
		t.Setenv("DEVSYNC_INSTALL_TOOLS", "cursor,windsurf")
		t.Setenv("DEVSYNC_INSTALL_VERBATIM", "true")
		t.Setenv("DEVSYNC_TRACKER_LOCK_TIMEOUT", "3s")

		cfg, err := Load(project)
		require.NoError(t, err)

		assert.Equal(t, conflicts.Rename, cfg.Install.ConflictPolicy)
		assert.Equal(t, []types.ToolID{types.ToolCursor, types.ToolWindsurf}, cfg.ToolIDs())
		assert.True(t, cfg.Install.Verbatim)
		assert.False(t, cfg.MergeAvailable())
		assert.Equal(t, 3*time.Second, cfg.Tracker.LockTimeout)
	})

	t.Run("overrides win over env", func(t *testing.T) {
		t.Setenv("DEVSYNC_OUTPUT_FORMAT", "text")

		cfg, err := LoadWithOptions(LoadOptions{
			ProjectRoot: project,
			Overrides:   map[string]interface{}{"output.format": "json", "install.conflict_policy": "skip"},
		})
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, cfg.Output.Format)
		assert.Equal(t, conflicts.Skip, cfg.Install.ConflictPolicy)
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "install.conflict_policy", envKey("DEVSYNC_INSTALL_CONFLICT_POLICY"))
	assert.Equal(t, "backup.max_age", envKey("DEVSYNC_BACKUP_MAX_AGE"))
	assert.Equal(t, "output.color", envKey("DEVSYNC_OUTPUT_COLOR"))
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown policy", "[install]\nconflict_policy = \"yolo\"\n"},
		{"prompt cannot be non-interactive", "[install]\nnon_interactive_policy = \"prompt\"\n"},
		{"unknown tool", "[install]\ntools = [\"notepad\"]\n"},
		{"negative retain", "[backup]\nretain = -1\n"},
		{"bad output format", "[output]\nformat = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			project := t.TempDir()
			writeConfig(t, filepath.Join(project, ".devsync.toml"), tt.content)

			_, err := LoadWithOptions(LoadOptions{ProjectRoot: project, SkipEnv: true})
			require.Error(t, err)
			assert.Equal(t, errors.ErrConfigValid, errors.GetErrorCode(err))
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	isolate(t)
	project := t.TempDir()
	writeConfig(t, filepath.Join(project, ".devsync.toml"), "[install\n")

	_, err := LoadWithOptions(LoadOptions{ProjectRoot: project, SkipEnv: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))
}
