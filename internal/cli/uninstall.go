package cli

import (
	"fmt"

	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/spf13/cobra"
)

func newUninstallCmd(g *globals) *cobra.Command {
	var (
		tools []string
		force bool
	)

	cmd := &cobra.Command{
		Use:               "uninstall <package>",
		Short:             MsgUninstallShort,
		Long:              MsgUninstallLong,
		Example:           MsgUninstallExample,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: g.packageNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}

			result, err := a.installer.Uninstall(cmd.Context(), args[0], installer.UninstallOptions{
				Tools:  types.ParseTools(tools),
				DryRun: g.dryRun,
				Force:  force,
			})
			if err != nil {
				return err
			}
			if err := a.out.Uninstall(result); err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return reportedError{fmt.Errorf(MsgUninstallFailed, len(result.Failed))}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tools, "tool", "t", nil, MsgFlagTool)
	cmd.Flags().BoolVarP(&force, "force", "f", false, MsgFlagForce)
	_ = cmd.RegisterFlagCompletionFunc("tool", toolNamesCompletion)

	return cmd
}

// packageNamesCompletion provides shell completion for installed packages
func (g *globals) packageNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := g.newApp(cmd, appOptions{nonInteractive: true})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names, err := a.installer.Tracker().Packages()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
