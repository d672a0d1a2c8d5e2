// Package cli implements the devsync command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/arthur-debert/devsync/internal/version"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/output"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags of one root command.
type globals struct {
	verbosity  int
	dryRun     bool
	format     string
	json       bool
	project    string
	configFile string

	// out is set once a command has built its renderer, so errors are
	// reported in the same format as results.
	out *output.Renderer
}

// reportedError wraps failures whose details were already rendered.
type reportedError struct{ error }

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *globals) {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "devsync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return stderrors.New(MsgNoCommand)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&g.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.StringVar(&g.format, "format", "", MsgFlagFormat)
	flags.BoolVar(&g.json, "json", false, MsgFlagJSON)
	flags.StringVarP(&g.project, "project", "C", "", MsgFlagProject)
	flags.StringVar(&g.configFile, "config", "", MsgFlagConfig)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "INSPECT:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newInstallCmd(g))
	rootCmd.AddCommand(newUninstallCmd(g))
	rootCmd.AddCommand(newBackupCmd(g))
	rootCmd.AddCommand(newListCmd(g))
	rootCmd.AddCommand(newStatusCmd(g))
	rootCmd.AddCommand(newToolsCmd(g))
	rootCmd.AddCommand(newShowCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd, g
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, g := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported reportedError
		switch {
		case stderrors.As(err, &reported):
			if g.out == nil || g.out.Format() != output.FormatJSON {
				_, _ = fmt.Fprintln(os.Stderr, err)
			}
		case g.out != nil:
			_ = g.out.Error(err)
		default:
			_ = output.New(os.Stderr, output.FormatAuto).Error(err)
		}
		return 1
	}
	return 0
}
