// pkg/testutil/environment.go
// DEPENDENCIES: paths, filesystem
// PURPOSE: Isolated project environments for integration tests

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is a throwaway project on the real filesystem.
type TestEnvironment struct {
	// Root is the project root; Packages holds package sources outside it.
	Root     string
	Packages string
	HomeDir  string

	FS      types.FS
	Project *paths.ProjectContext

	t *testing.T
}

// NewTestEnvironment creates the project, points HOME and the XDG
// variables inside the temp dir and builds the project context.
func NewTestEnvironment(t *testing.T, tools ...types.ToolID) *TestEnvironment {
	t.Helper()

	base := t.TempDir()
	env := &TestEnvironment{
		Root:     filepath.Join(base, "project"),
		Packages: filepath.Join(base, "packages"),
		HomeDir:  filepath.Join(base, "home"),
		FS:       filesystem.NewOS(),
		t:        t,
	}
	for _, dir := range []string{env.Root, env.Packages, env.HomeDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	t.Setenv(paths.EnvHome, env.HomeDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(env.HomeDir, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(env.HomeDir, ".local", "state"))

	project, err := paths.NewProjectContext(env.Root, paths.ContextOptions{Tools: tools})
	require.NoError(t, err)
	env.Project = project
	return env
}

// Path returns the absolute path of a project-relative slash path.
func (env *TestEnvironment) Path(rel string) string {
	return env.Project.Abs(rel)
}

// WriteFile creates a project file, with parent directories.
func (env *TestEnvironment) WriteFile(rel, content string) string {
	env.t.Helper()
	path := env.Path(rel)
	require.NoError(env.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(env.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ReadFile returns the content of a project file, failing the test when it
// does not exist.
func (env *TestEnvironment) ReadFile(rel string) string {
	env.t.Helper()
	data, err := os.ReadFile(env.Path(rel))
	require.NoError(env.t, err, "reading %s", rel)
	return string(data)
}

// Exists reports whether a project file exists.
func (env *TestEnvironment) Exists(rel string) bool {
	_, err := os.Stat(env.Path(rel))
	return err == nil
}

// Snapshot returns the content of every project file outside the devsync
// state directory, keyed by relative path.
func (env *TestEnvironment) Snapshot() map[string]string {
	env.t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(env.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == env.Project.StateDir {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[env.Project.Rel(path)] = string(data)
		return nil
	})
	require.NoError(env.t, err)
	return files
}
