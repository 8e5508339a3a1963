package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/docgen"
	"github.com/amz-risk/docflow-cli/internal/workbook"
)

var runSkipSync bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Full job: sync workbook, provision folders, generate documents",
	Long: `Runs the three stages in order, the way the scheduled job does:
workbook sync, client folder provisioning, then document generation.

Examples:
  # The scheduled job
  docflow run

  # Generation only needs fresh folders, not a fresh workbook
  docflow run --skip-sync`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		crm := newCRM(cfg)
		drive := newDrive(cfg)

		if !runSkipSync {
			if err := workbook.NewSyncer(crm, drive, cfg.Drive).Sync(ctx); err != nil {
				return eris.Wrap(err, "run: workbook sync")
			}
		}

		engine, err := newEngine(cfg, crm, drive)
		if err != nil {
			return eris.Wrap(err, "run: build engine")
		}

		if _, err := docgen.NewProvisioner(crm, engine).Provision(ctx); err != nil {
			return eris.Wrap(err, "run: provision")
		}

		flows := docgen.AllFlows(cfg.Generate.FilePrefix, cfg.Generate.ContactGate)
		sum, err := docgen.NewDriver(crm, drive, engine, flows).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run: generate")
		}

		if tr := newTracker(cfg); tr != nil {
			if err := tr.RecordRun(ctx, sum); err != nil {
				zap.L().Error("run: record run", zap.Error(err))
			}
		}

		fmt.Printf("run %s: %d generated, %d existed, %d skipped, %d failed\n",
			sum.RunID, sum.Generated, sum.Existed, sum.Skipped, sum.Failed)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runSkipSync, "skip-sync", false, "skip the workbook sync stage")
	rootCmd.AddCommand(runCmd)
}
