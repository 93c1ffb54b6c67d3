package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/mapping"
	"github.com/keymapio/keymap/internal/report"
)

var (
	inspectFile   string
	inspectTenant int64
	inspectKey    string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the contents of a mapping document",
	Long: `Inspect loads a mapping document and prints a per-customer summary.
With --tenant it prints that customer's full key-to-column assignment; with
--key as well, it resolves a single metric key to its physical column.

Example:
  keymap inspect --file output/mappings/key_mapping.json --tenant 1042`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "",
		"Mapping document to inspect (required)")
	inspectCmd.MarkFlagRequired("file")

	inspectCmd.Flags().Int64Var(&inspectTenant, "tenant", 0,
		"Show the full assignment for this customer id")
	inspectCmd.Flags().StringVar(&inspectKey, "key", "",
		"Resolve this metric key to its column (requires --tenant)")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := mapping.Load(inspectFile)
	if err != nil {
		return err
	}

	if inspectTenant == 0 {
		report.WriteMappingSummary(cmd.OutOrStdout(), doc)
		return nil
	}

	customer, ok := doc.Customer(inspectTenant)
	if !ok {
		return fmt.Errorf("customer %d not present in %s", inspectTenant, inspectFile)
	}

	if inspectKey != "" {
		column, ok := doc.ColumnFor(inspectTenant, inspectKey)
		if !ok {
			return fmt.Errorf("key %q not mapped for customer %d", inspectKey, inspectTenant)
		}
		cmd.Printf("%s\n", column)
		return nil
	}

	report.WriteTenantDetail(cmd.OutOrStdout(), inspectTenant, customer)
	return nil
}
