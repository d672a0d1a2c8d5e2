package cli

import (
	"fmt"

	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/output"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/spf13/cobra"
)

func newToolsCmd(g *globals) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "tools",
		Short:   MsgToolsShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}

			detected := make(map[types.ToolID]bool)
			for _, t := range registry.Detect(a.fs, a.project.Root) {
				detected[t] = true
			}
			var infos []output.ToolInfo
			for _, t := range registry.Tools() {
				c, _ := registry.Lookup(t)
				infos = append(infos, output.NewToolInfo(c, detected[t]))
			}
			return a.out.Tools(infos, verbose)
		},
	}

	cmd.Flags().BoolVar(&verbose, "rules", false, MsgFlagToolsVerbose)
	return cmd
}

func newShowCmd(g *globals) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:     "show <package-dir> <component>",
		Short:   MsgShowShort,
		Long:    MsgShowLong,
		GroupID: "inspect",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			pkg, err := manifest.Load(a.fs, args[0])
			if err != nil {
				return err
			}
			c, ok := pkg.FindByName(args[1])
			if !ok {
				return fmt.Errorf(MsgErrNoComponent, pkg.Name, args[1])
			}
			content, err := c.Content(a.fs, pkg.Root)
			if err != nil {
				return err
			}
			return a.out.Markdown(c.Name, string(content), width)
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, MsgFlagWidth)
	return cmd
}
