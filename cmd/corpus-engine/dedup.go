// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/dedup"
	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/internal/report"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Merge duplicate papers within a snapshot",
	Long: `Dedup merges records that share a DOI or arXiv ID, then records whose
normalized titles match and whose author lists overlap. The snapshot is
rewritten in place (or to --output) and a merge report is printed.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().String("input", "", "paper snapshot to deduplicate (required)")
	dedupCmd.Flags().String("output", "", "write result here instead of rewriting the input")
	dedupCmd.Flags().Float64("threshold", 0, "author overlap required for title-only merges (default 0.5)")
	dedupCmd.Flags().String("format", "table", "report format: table or json")

	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input snapshot required")
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = input
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	out := dedup.Run(papers, types.DedupConfig{AuthorOverlapThreshold: threshold})
	if err := harvest.WritePapers(output, out.Papers); err != nil {
		return err
	}

	return report.Duplicates(out, format, os.Stdout)
}
