package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportFile   string
	exportNoFile bool
	importFile   string
	importLatest bool
)

func init() {
	exportCmd.Flags().StringVar(&exportFile, "file", "", "Write the bundle to this path (default: DATA_DIR/backups)")
	exportCmd.Flags().BoolVar(&exportNoFile, "slot-only", false, "Only refresh the stored backup slot")

	importCmd.Flags().StringVar(&importFile, "file", "", "Restore from a bundle file")
	importCmd.Flags().BoolVar(&importLatest, "latest", false, "Restore the newest bundle in DATA_DIR/backups")
	importCmd.MarkFlagsMutuallyExclusive("file", "latest")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks, sessions and points",
	Long: `Export tasks, sessions and points into the backup slot and a JSON file.

The bundle has the shape {"tasks", "sessions", "userStats", "exportDate", "version"}.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore tasks, sessions and points from a backup",
	Long: `Restore from the backup slot, or from a bundle file with --file/--latest.

Only the parts present in the bundle are replaced.`,
	RunE: runImport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	a := application
	bundle, err := a.tasks.ExportData(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if exportNoFile {
		fmt.Fprintf(out, "Exported %d task(s) to the backup slot\n", len(*bundle.Tasks))
		return nil
	}
	path, err := a.backups.Write(bundle, exportFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d task(s) and %d session(s) to %s\n", len(*bundle.Tasks), len(*bundle.Sessions), path)
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	a := application
	ctx := cmd.Context()
	source := "backup slot"
	if importFile != "" || importLatest {
		bundle, err := a.backups.Read(importFile)
		if err != nil {
			return err
		}
		a.tasks.ApplyBackup(ctx, bundle)
		source = "bundle exported " + bundle.ExportDate.In(a.loc).Format(displayTime)
	} else if err := a.tasks.ImportData(ctx); err != nil {
		return err
	}
	a.goals.Refresh(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported from %s: %d task(s), %d session(s), %d point(s)\n",
		source, len(a.tasks.Tasks()), len(a.sessions.Sessions()), a.tasks.UserStats().Points)
	return nil
}
