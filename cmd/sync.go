package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/amz-risk/docflow-cli/internal/workbook"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync CRM contacts, companies, and deals into the tracking workbook",
	Long: `Fetches every contact, company, and deal from the CRM and merges them
into the shared xlsx workbook on the drive, one sheet per entity type.
Rows are keyed (email / name / dealname) so re-runs overwrite in place.

Examples:
  # Merge into the configured workbook
  docflow sync`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		syncer := workbook.NewSyncer(newCRM(cfg), newDrive(cfg), cfg.Drive)
		if err := syncer.Sync(ctx); err != nil {
			return eris.Wrap(err, "sync: workbook")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
