package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort          = "Install AI assistant configuration packages into a project"
	MsgInstallShort       = "Install a package for the project's AI tools"
	MsgUninstallShort     = "Remove an installed package"
	MsgListShort          = "List installed packages"
	MsgStatusShort        = "Show installed packages and drift"
	MsgBackupShort        = "Manage backups"
	MsgBackupListShort    = "List backups, newest first"
	MsgBackupRestoreShort = "Restore the files of a backup"
	MsgBackupCleanupShort = "Delete old backups"
	MsgToolsShort         = "List supported AI tools and what they accept"
	MsgShowShort          = "Preview a component of a package"
	MsgVersionShort       = "Print version information"
	MsgCompletionShort    = "Generate shell completion script"
	MsgManShort           = "Generate man pages"

	// Flag descriptions
	MsgFlagVerbose        = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun         = "Preview changes without executing them"
	MsgFlagFormat         = "Output format: auto, term, text or json"
	MsgFlagJSON           = "Shorthand for --format json"
	MsgFlagProject        = "Project directory (default: git root of the working directory)"
	MsgFlagConfig         = "User configuration file"
	MsgFlagTool           = "Tool to target (repeatable, default: configured or detected tools)"
	MsgFlagConflict       = "Conflict policy: skip, overwrite, rename, prompt or merge"
	MsgFlagNonInteractive = "Never prompt; prompt conflicts use install.non_interactive_policy"
	MsgFlagDiff           = "Show a diff before each conflict prompt"
	MsgFlagCredential     = "Credential value NAME=VALUE (repeatable, wins over the environment)"
	MsgFlagForce          = "Remove files even when they were edited after install"
	MsgFlagPath           = "Restore only this path (repeatable)"
	MsgFlagKeep           = "Number of backups to keep (default: backup.retain)"
	MsgFlagMaxAge         = "Delete backups older than this (default: backup.max_age)"
	MsgFlagToolsVerbose   = "Show the install rule of every component kind"
	MsgFlagManDir         = "Directory to write man pages to"
	MsgFlagWidth          = "Wrap rendered markdown at this width"

	// Status messages
	MsgNoCommand       = "no command specified"
	MsgInstallFailed   = "%d component(s) failed to install"
	MsgUninstallFailed = "%d destination(s) could not be removed"
	MsgManWritten      = "Man pages written to %s"

	// Error messages
	MsgErrCredentialFlag = "invalid --credential %q, want NAME=VALUE"
	MsgErrNoComponent    = "package %s has no component named %q"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/uninstall-long.txt
	msgUninstallLongRaw string
	MsgUninstallLong    = strings.TrimSpace(msgUninstallLongRaw)

	//go:embed msgs/uninstall-example.txt
	msgUninstallExampleRaw string
	MsgUninstallExample    = strings.TrimRight(msgUninstallExampleRaw, "\n")

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/backup-long.txt
	msgBackupLongRaw string
	MsgBackupLong    = strings.TrimSpace(msgBackupLongRaw)

	//go:embed msgs/backup-example.txt
	msgBackupExampleRaw string
	MsgBackupExample    = strings.TrimRight(msgBackupExampleRaw, "\n")

	//go:embed msgs/show-long.txt
	msgShowLongRaw string
	MsgShowLong    = strings.TrimSpace(msgShowLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
