package cli

import (
	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/spf13/cobra"
)

func newListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgListShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			state, err := a.installer.Tracker().Load()
			if err != nil {
				return err
			}

			var pkgs []installer.PackageStatus
			for _, name := range state.Packages() {
				rec := state[name]
				pkgs = append(pkgs, installer.PackageStatus{
					Name:      name,
					Version:   rec.Version,
					Namespace: rec.Namespace,
					Tools:     rec.ToolIDs(),
					Files:     len(rec.Files()),
				})
			}
			return a.out.Status(pkgs)
		},
	}
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Long:    MsgStatusLong,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			pkgs, err := a.installer.Status(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Status(pkgs)
		},
	}
}
