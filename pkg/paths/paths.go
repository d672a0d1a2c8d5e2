// Package paths provides centralized path handling for devsync: project
// root discovery, the per-project state layout, XDG locations, and the
// Path Resolver that maps a component to its destination for a tool.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/go-git/go-git/v5"
)

// Default directories and files. These define the on-disk layout devsync
// keeps inside a project; user-configurable overrides live in pkg/config.
const (
	// AppName is the directory name used under XDG locations
	AppName = "devsync"

	// StateDirName is the per-project state directory
	StateDirName = ".devsync"

	// TrackerFileName is the installation tracker inside StateDirName
	TrackerFileName = "installations.json"

	// BackupsDirName holds backup sets inside StateDirName
	BackupsDirName = "backups"

	// ProjectConfigFile is the per-project configuration file
	ProjectConfigFile = ".devsync.toml"

	// UserConfigFile is the user configuration file name
	UserConfigFile = "config.toml"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// ProjectContext is the explicit state every operation receives instead of
// process-wide globals.
type ProjectContext struct {
	Root        string
	Tools       []types.ToolID
	StateDir    string
	TrackerPath string
	BackupDir   string
}

// ContextOptions overrides the default state layout. Relative paths are
// resolved against the project root.
type ContextOptions struct {
	Tools       []types.ToolID
	TrackerFile string
	BackupDir   string
}

// NewProjectContext builds the context for a project root.
func NewProjectContext(root string, opts ContextOptions) (*ProjectContext, error) {
	abs, err := filepath.Abs(expandHome(root))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for %s", root)
	}

	ctx := &ProjectContext{
		Root:        abs,
		Tools:       opts.Tools,
		StateDir:    filepath.Join(abs, StateDirName),
		TrackerPath: filepath.Join(abs, StateDirName, TrackerFileName),
		BackupDir:   filepath.Join(abs, StateDirName, BackupsDirName),
	}
	if opts.TrackerFile != "" {
		ctx.TrackerPath = inRoot(abs, opts.TrackerFile)
	}
	if opts.BackupDir != "" {
		ctx.BackupDir = inRoot(abs, opts.BackupDir)
	}
	return ctx, nil
}

func inRoot(root, p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// Rel returns path relative to the project root, in slash form, for
// display and tracking. Paths outside the root are returned unchanged.
func (p *ProjectContext) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Abs turns a project-relative slash path back into an absolute one.
func (p *ProjectContext) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// FindProjectRoot returns the working tree root of the git repository
// containing start, or start itself when it is not inside a repository.
func FindProjectRoot(start string) (string, error) {
	logger := logging.GetLogger("paths")

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for %s", start)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		logger.Debug().Str("start", abs).Err(err).Msg("No git repository, using start directory")
		return abs, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repository
		return abs, nil
	}
	root := wt.Filesystem.Root()
	logger.Debug().Str("root", root).Msg("Found git project root")
	return root, nil
}

// UserConfigDir returns $XDG_CONFIG_HOME/devsync.
func UserConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// UserConfigPath returns the user configuration file path.
func UserConfigPath() string {
	return filepath.Join(UserConfigDir(), UserConfigFile)
}

// LogFilePath returns the log file location under the XDG state home.
func LogFilePath() string {
	return logging.LogFilePath()
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	// ~something (not the user's home)
	return path
}
