// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/domains"
	"github.com/pdiddy/corpus-engine/internal/report"
	"github.com/pdiddy/corpus-engine/internal/venues"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports over the indexed corpus",
}

var reportVenuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Publication counts per venue and per year",
	RunE:  runReportVenues,
}

var reportCorrectionsCmd = &cobra.Command{
	Use:   "corrections",
	Short: "Per-domain correction factors for corpus coverage",
	Long: `Corrections compares the number of indexed papers per research domain
against the number of domain assignments and prints a correction factor
for each domain. Factors above 1.0 indicate domains where the corpus
under-represents the assignments.`,
	RunE: runReportCorrections,
}

func init() {
	reportCmd.PersistentFlags().String("format", "table", "output format (table or json)")
	reportVenuesCmd.Flags().Int("top", 20, "number of venues to show")

	reportCmd.AddCommand(reportVenuesCmd)
	reportCmd.AddCommand(reportCorrectionsCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportVenues(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	top, _ := cmd.Flags().GetInt("top")

	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.All(context.Background())
	if err != nil {
		return err
	}

	stats := venues.Aggregate(papers)
	return report.Venues(stats, top, format, os.Stdout)
}

func runReportCorrections(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")

	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	papers, err := store.All(ctx)
	if err != nil {
		return err
	}
	records, err := store.Domains(ctx)
	if err != nil {
		return err
	}

	factors := domains.CorrectionFactors(papers, records)
	return report.Corrections(factors, format, os.Stdout)
}
