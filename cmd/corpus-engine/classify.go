// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/corpus"
	"github.com/pdiddy/corpus-engine/internal/domains"
	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/internal/report"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Assign papers to research domains",
	Long: `Classify maps each paper's field-of-study labels onto a domain taxonomy,
optionally falling back to title/abstract keyword matching. The snapshot is
rewritten with domain assignments, a sanity-check report is printed, and
with --store the assignments are mirrored into the corpus database.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("input", "", "paper snapshot to classify (required)")
	classifyCmd.Flags().String("taxonomy", "", "YAML taxonomy file (default: built-in)")
	classifyCmd.Flags().Bool("keyword-fallback", false, "match keywords in title/abstract when labels map to no domain")
	classifyCmd.Flags().Bool("store", false, "write assignments into the corpus database")
	classifyCmd.Flags().Bool("corrections", false, "print the correction factor grid")
	classifyCmd.Flags().String("format", "table", "report format: table or json")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input snapshot required")
	}
	taxonomyPath, _ := cmd.Flags().GetString("taxonomy")
	keywordFallback, _ := cmd.Flags().GetBool("keyword-fallback")
	toStore, _ := cmd.Flags().GetBool("store")
	corrections, _ := cmd.Flags().GetBool("corrections")
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	tax, err := domains.LoadTaxonomy(types.DomainsConfig{
		TaxonomyPath:    taxonomyPath,
		KeywordFallback: keywordFallback,
	})
	if err != nil {
		return err
	}

	out := domains.Classify(papers, tax, keywordFallback)
	if err := harvest.WritePapers(input, papers); err != nil {
		return err
	}

	if toStore {
		store, err := corpus.NewStore(types.CorpusStoreConfig{CorpusDir: corpusDir(cmd)})
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SetDomains(context.Background(), out.Records); err != nil {
			return err
		}
	}

	if err := report.Classification(out, format, os.Stdout); err != nil {
		return err
	}

	if corrections {
		fmt.Println()
		factors := domains.CorrectionFactors(papers, out.Records)
		return report.Corrections(factors, format, os.Stdout)
	}
	return nil
}
