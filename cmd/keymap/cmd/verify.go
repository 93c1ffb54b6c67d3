package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keymapio/keymap/internal/mapping"
	"github.com/keymapio/keymap/internal/report"
	"github.com/keymapio/keymap/internal/verifier"
)

var (
	verifyFile    string
	verifyAgainst string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the structural invariants of a mapping document",
	Long: `Verify loads a mapping document and checks the invariants downstream
phases rely on: per-customer mappings must be contiguous 1-based bijections
in lexicographic key order, reverse mappings must be exact inverses, and the
global column widths must match the per-customer maxima.

With --against it additionally diffs the document against an earlier
generation and reports every key whose physical column moved. Rows written
under the old numbering are not rewritten, so any reassignment means the two
generations are not interchangeable.

Example:
  keymap verify --file key_mapping.json --against key_mapping.prev.json`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "",
		"Mapping document to verify (required)")
	verifyCmd.MarkFlagRequired("file")

	verifyCmd.Flags().StringVar(&verifyAgainst, "against", "",
		"Earlier mapping document to diff column assignments against")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	doc, err := mapping.Load(verifyFile)
	if err != nil {
		return err
	}

	result := verifier.Verify(doc)
	report.WriteVerifyResult(cmd.OutOrStdout(), result)

	if verifyAgainst != "" {
		oldDoc, err := mapping.Load(verifyAgainst)
		if err != nil {
			return err
		}
		moves := verifier.Diff(oldDoc, doc)
		report.WriteDiff(cmd.OutOrStdout(), moves)
	}

	if !result.Ok() {
		return fmt.Errorf("mapping document %s failed %d invariant check(s)", verifyFile, result.Failed)
	}
	return nil
}
