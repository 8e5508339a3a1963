package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/amz-risk/docflow-cli/internal/docgen"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the standard folder layout for every client company",
	Long: `Ensures each client-category company has its drive folder and the
numbered document subfolders (01. NDA through 05. MSAs). Existing folders
are left untouched, so the command is safe to re-run.

Examples:
  docflow provision`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		crm := newCRM(cfg)
		engine, err := newEngine(cfg, crm, newDrive(cfg))
		if err != nil {
			return eris.Wrap(err, "provision: build engine")
		}

		sum, err := docgen.NewProvisioner(crm, engine).Provision(ctx)
		if err != nil {
			return eris.Wrap(err, "provision")
		}
		fmt.Printf("provisioned %d client folders (%d failed)\n", sum.Companies, sum.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
