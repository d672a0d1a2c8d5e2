package cli

import (
	"fmt"

	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/spf13/cobra"
)

func newInstallCmd(g *globals) *cobra.Command {
	var (
		tools          []string
		policy         string
		nonInteractive bool
		showDiff       bool
		creds          []string
	)

	cmd := &cobra.Command{
		Use:     "install <package-dir>",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cli.install")

			values, err := parseCredentials(creds)
			if err != nil {
				return err
			}
			a, err := g.newApp(cmd, appOptions{
				nonInteractive: nonInteractive,
				showDiff:       showDiff,
				credentials:    values,
			})
			if err != nil {
				return err
			}

			pkg, err := manifest.Load(a.fs, args[0])
			if err != nil {
				return err
			}

			p := a.cfg.Install.ConflictPolicy
			if policy != "" {
				if p, err = conflicts.ParsePolicy(policy); err != nil {
					return err
				}
			}

			logger.Info().
				Str("package", pkg.Name).
				Str("version", pkg.Version).
				Str("policy", string(p)).
				Strs("tools", tools).
				Bool("dry_run", g.dryRun).
				Msg("Installing package")

			result, err := a.installer.Install(cmd.Context(), pkg, installer.InstallOptions{
				Tools:       types.ParseTools(tools),
				Policy:      p,
				DryRun:      g.dryRun,
				Concurrency: a.cfg.Install.Concurrency,
			})
			if err != nil {
				return err
			}
			if err := a.out.Install(result); err != nil {
				return err
			}
			if result.Status == installer.StatusFailed {
				return reportedError{fmt.Errorf(MsgInstallFailed, len(result.Failed))}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tools, "tool", "t", nil, MsgFlagTool)
	cmd.Flags().StringVar(&policy, "conflict", "", MsgFlagConflict)
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, MsgFlagNonInteractive)
	cmd.Flags().BoolVar(&showDiff, "diff", false, MsgFlagDiff)
	cmd.Flags().StringArrayVar(&creds, "credential", nil, MsgFlagCredential)

	_ = cmd.RegisterFlagCompletionFunc("tool", toolNamesCompletion)
	_ = cmd.RegisterFlagCompletionFunc("conflict", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(conflicts.Policies))
		for i, p := range conflicts.Policies {
			names[i] = string(p)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// toolNamesCompletion provides shell completion for tool IDs
func toolNamesCompletion(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, t := range registry.Tools() {
		names = append(names, string(t))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
