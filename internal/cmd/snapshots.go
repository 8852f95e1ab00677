package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/lock"
	"github.com/cameronsjo/gantry/internal/snapshot"
	"github.com/cameronsjo/gantry/internal/ui"
)

var snapshotsOutput string

// snapshotsCmd groups the compose output snapshot commands.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List and restore snapshots of a compose folder",
	Long: `"gantry build compose --overwrite" snapshots the existing folder before
replacing it. These commands list and restore those snapshots.

Examples:
  gantry snapshots list -o out/
  gantry snapshots restore -o out/            # restore the newest
  gantry snapshots restore -o out/ snapshot-20240101-120000.000000000`,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.New(snapshotsOutput)
		if err != nil {
			return err
		}

		snapshots, err := store.List()
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			ui.Info("No snapshots of %s", snapshotsOutput)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCREATED\tFILES")
		for _, s := range snapshots {
			fmt.Fprintf(w, "%s\t%s\t%d\n", s.Name, s.Created.Format("2006-01-02 15:04:05"), s.Files)
		}
		return w.Flush()
	},
}

var snapshotsRestoreCmd = &cobra.Command{
	Use:   "restore [NAME]",
	Short: "Replace the compose folder with a snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.New(snapshotsOutput)
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			latest, err := store.Latest()
			if err != nil {
				return err
			}
			name = latest.Name
		}

		abs, err := filepath.Abs(snapshotsOutput)
		if err != nil {
			return err
		}
		err = lock.WithLock(filepath.Dir(abs), filepath.Base(abs), func() error {
			return store.Restore(name)
		})
		if err != nil {
			return err
		}

		ui.Success("Restored %s from %s", snapshotsOutput, name)
		return nil
	},
}

func init() {
	snapshotsCmd.PersistentFlags().StringVarP(&snapshotsOutput, "output", "o", "", "Compose folder")
	snapshotsCmd.MarkPersistentFlagRequired("output")

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsRestoreCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
