package cli

import (
	"time"

	"github.com/arthur-debert/devsync/pkg/backup"
	"github.com/spf13/cobra"
)

func newBackupCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   MsgBackupShort,
		Long:    MsgBackupLong,
		Example: MsgBackupExample,
		GroupID: "core",
	}
	cmd.AddCommand(newBackupListCmd(g))
	cmd.AddCommand(newBackupRestoreCmd(g))
	cmd.AddCommand(newBackupCleanupCmd(g))
	return cmd
}

func newBackupListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgBackupListShort,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			sets, err := a.installer.Backups().List()
			if err != nil {
				return err
			}
			return a.out.Backups(sets)
		},
	}
}

func newBackupRestoreCmd(g *globals) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: MsgBackupRestoreShort,
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			sets, err := a.installer.Backups().List()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			ids := make([]string, len(sets))
			for i, s := range sets {
				ids[i] = s.ID
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			filter := make([]string, len(only))
			for i, p := range only {
				filter[i] = a.project.Abs(p)
			}
			result, err := a.installer.Backups().Restore(args[0], backup.RestoreOptions{
				Filter: filter,
				DryRun: g.dryRun,
			})
			if err != nil {
				return err
			}
			return a.out.Restore(result)
		},
	}

	cmd.Flags().StringArrayVar(&only, "path", nil, MsgFlagPath)
	return cmd
}

func newBackupCleanupCmd(g *globals) *cobra.Command {
	var (
		keep   int
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: MsgBackupCleanupShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, appOptions{nonInteractive: true})
			if err != nil {
				return err
			}
			policy := backup.RetentionPolicy{
				Keep:   a.cfg.Backup.Retain,
				MaxAge: a.cfg.Backup.MaxAge,
				DryRun: g.dryRun,
			}
			if cmd.Flags().Changed("keep") {
				policy.Keep = keep
			}
			if cmd.Flags().Changed("max-age") {
				policy.MaxAge = maxAge
			}

			deleted, err := a.installer.Backups().Cleanup(policy)
			if err != nil {
				return err
			}
			return a.out.Cleanup(deleted, g.dryRun)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, MsgFlagKeep)
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, MsgFlagMaxAge)
	return cmd
}
