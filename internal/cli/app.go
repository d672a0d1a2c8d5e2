package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/arthur-debert/devsync/pkg/adapter"
	"github.com/arthur-debert/devsync/pkg/config"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/credentials"
	"github.com/arthur-debert/devsync/pkg/filesystem"
	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/output"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/prompt"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/spf13/cobra"
)

// app is everything a command needs for one project.
type app struct {
	cfg       *config.Loaded
	project   *paths.ProjectContext
	fs        types.FS
	installer *installer.Installer
	out       *output.Renderer
}

type appOptions struct {
	nonInteractive bool
	showDiff       bool
	credentials    map[string]string
}

// outputFormat resolves the output format from flags, then configuration.
func (g *globals) outputFormat(cfg *config.Config) (output.Format, error) {
	if g.json {
		return output.FormatJSON, nil
	}
	if g.format != "" {
		return output.ParseFormat(g.format)
	}
	if cfg == nil {
		return output.FormatAuto, nil
	}
	if cfg.Output.Format == config.FormatJSON {
		return output.FormatJSON, nil
	}
	if !cfg.Output.Color {
		return output.FormatText, nil
	}
	return output.FormatAuto, nil
}

func (g *globals) newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	logger := logging.GetLogger("cli")

	format, err := g.outputFormat(nil)
	if err != nil {
		return nil, err
	}
	g.out = output.New(cmd.OutOrStdout(), format)

	start := g.project
	if start == "" {
		if start, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	root, err := paths.FindProjectRoot(start)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectRoot: root,
		UserConfig:  g.configFile,
	})
	if err != nil {
		return nil, err
	}
	if format, err = g.outputFormat(cfg.Config); err != nil {
		return nil, err
	}
	g.out = output.New(cmd.OutOrStdout(), format)

	project, err := paths.NewProjectContext(root, paths.ContextOptions{
		Tools:       cfg.ToolIDs(),
		TrackerFile: cfg.Tracker.File,
		BackupDir:   cfg.Backup.Dir,
	})
	if err != nil {
		return nil, err
	}

	var prompter conflicts.Prompter
	if !opts.nonInteractive && g.out.Format() != output.FormatJSON {
		prompter = prompt.NewTerminal(opts.showDiff)
	}
	var merger adapter.Merger
	if cfg.MergeAvailable() {
		merger = adapter.NewExecMerger(cfg.Merge.Command, cfg.Merge.Timeout)
	}
	var creds credentials.Resolver = credentials.EnvResolver{}
	if len(opts.credentials) > 0 {
		creds = credentials.Chain{credentials.Static(opts.credentials), credentials.EnvResolver{}}
	}

	logger.Debug().
		Str("root", project.Root).
		Strs("config", cfg.Sources).
		Str("format", g.out.Format().String()).
		Bool("prompt", prompter != nil).
		Bool("merge", merger != nil).
		Msg("Project context ready")

	fs := filesystem.NewOS()
	return &app{
		cfg:     cfg,
		project: project,
		fs:      fs,
		installer: installer.New(installer.Options{
			Project:        project,
			FS:             fs,
			Prompter:       prompter,
			NonInteractive: cfg.Install.NonInteractivePolicy,
			Merger:         merger,
			Credentials:    creds,
			LockTimeout:    cfg.Tracker.LockTimeout,
			Logger:         logging.GetLogger("installer"),
		}),
		out: g.out,
	}, nil
}

// parseCredentials turns NAME=VALUE flags into a map.
func parseCredentials(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf(MsgErrCredentialFlag, v)
		}
		out[name] = value
	}
	return out, nil
}
