package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/config"
	"github.com/Veraticus/carbon-audit/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the audit database",
		Example: `  # Snapshot the database before editing the criteria catalog
  carbon backup create ~/backups/carbon-before-reweight.db

  # Show previous backups
  carbon backup list`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())

	return cmd
}

func createBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [path]",
		Short: "Write a consistent copy of the database",
		Long:  `Write a consistent copy of the database. Without a path the copy goes next to the database, named after the current time.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var dest string
			if len(args) == 1 {
				dest = config.ExpandPath(args[0])
			} else {
				dest = filepath.Join(filepath.Dir(store.Path()), "backups",
					fmt.Sprintf("carbon-%s.db", time.Now().Format("20060102-150405")))
			}
			if dest, err = filepath.Abs(dest); err != nil {
				return fmt.Errorf("failed to resolve backup path: %w", err)
			}

			info, err := store.Backup(ctx, dest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Backup written to %s (%.1f KB)", info.Path, float64(info.FileSize)/1024)))
			for _, table := range []string{"criteria", "projects", "evaluations", "ratings"} {
				fmt.Fprintf(out, "  %-12s %d\n", table, info.RowCounts[table])
			}
			return nil
		},
	}
}

func listBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			backups, err := store.ListBackups(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, backups, func() error {
				return renderBackups(out, backups)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func renderBackups(out io.Writer, backups []storage.BackupInfo) error {
	if len(backups) == 0 {
		_, err := fmt.Fprintln(out, "No backups recorded. Create one with 'carbon backup create'.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Created\tPath\tSize\tSchema")
	fmt.Fprintln(w, "-------\t----\t----\t------")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%s\t%.1f KB\tv%d\n",
			b.CreatedAt.Format("2006-01-02 15:04"), b.Path, float64(b.FileSize)/1024, b.SchemaVersion)
	}
	return w.Flush()
}
