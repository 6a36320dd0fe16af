// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/internal/report"
	"github.com/pdiddy/corpus-engine/internal/venues"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Normalize venue names and report venue statistics",
	Long: `Venues maps raw venue strings (OpenReview paths, "Proceedings of the
38th..." prefixes, year suffixes) onto canonical names using a built-in
merge table plus an optional YAML merge map, rewrites the snapshot, and
prints publication counts per venue.`,
	RunE: runVenues,
}

func init() {
	venuesCmd.Flags().String("input", "", "paper snapshot to normalize (required)")
	venuesCmd.Flags().String("merge-map", "", "YAML file of extra variant -> canonical mappings")
	venuesCmd.Flags().Int("top", 20, "number of venues to show (0 = all)")
	venuesCmd.Flags().String("format", "table", "report format: table or json")

	rootCmd.AddCommand(venuesCmd)
}

func runVenues(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input snapshot required")
	}
	mergeMap, _ := cmd.Flags().GetString("merge-map")
	top, _ := cmd.Flags().GetInt("top")
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	normalizer, err := venues.NewNormalizer(types.VenueConfig{MergeMapPath: mergeMap})
	if err != nil {
		return err
	}

	changed := normalizer.Apply(papers)
	if err := harvest.WritePapers(input, papers); err != nil {
		return err
	}
	fmt.Printf("%d of %d venue names normalized\n\n", changed, len(papers))

	stats := venues.Aggregate(papers)
	return report.Venues(stats, top, format, os.Stdout)
}
