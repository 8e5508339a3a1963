package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/docgen"
)

var generateTypes []string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate gated documents for companies and deals",
	Long: `Walks companies and deals, and for every entity whose status tag
requests generation, copies the matching template into the client folder,
fills the placeholders, and advances the status tag.

Examples:
  # All document types
  docflow generate

  # NDAs and MSAs only
  docflow generate --type nda --type msa`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		crm := newCRM(cfg)
		drive := newDrive(cfg)
		engine, err := newEngine(cfg, crm, drive)
		if err != nil {
			return eris.Wrap(err, "generate: build engine")
		}

		flows := docgen.AllFlows(cfg.Generate.FilePrefix, cfg.Generate.ContactGate)
		if len(generateTypes) > 0 {
			flows, err = filterFlows(flows, generateTypes)
			if err != nil {
				return err
			}
		}

		sum, err := docgen.NewDriver(crm, drive, engine, flows).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		if tr := newTracker(cfg); tr != nil {
			if err := tr.RecordRun(ctx, sum); err != nil {
				zap.L().Error("generate: record run", zap.Error(err))
			}
		}

		fmt.Printf("run %s: %d generated, %d existed, %d skipped, %d failed\n",
			sum.RunID, sum.Generated, sum.Existed, sum.Skipped, sum.Failed)
		return nil
	},
}

func filterFlows(flows []docgen.Flow, types []string) ([]docgen.Flow, error) {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}
	kept := flows[:0]
	for _, f := range flows {
		if want[string(f.Type)] {
			kept = append(kept, f)
			delete(want, string(f.Type))
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for t := range want {
			unknown = append(unknown, t)
		}
		sort.Strings(unknown)
		return nil, eris.Errorf("generate: unknown document type(s): %s", strings.Join(unknown, ", "))
	}
	return kept, nil
}

func init() {
	generateCmd.Flags().StringArrayVar(&generateTypes, "type", nil, "restrict to document types (nda, proposal, sow, msa); repeatable")
	rootCmd.AddCommand(generateCmd)
}
