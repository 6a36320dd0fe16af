// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "corpus-engine/0.1"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Collect publication metadata from bibliographic APIs",
	Long: `Harvest queries Semantic Scholar and OpenAlex for papers affiliated
with an institution (or published at a venue) inside a year window, and
writes the combined results as a JSON snapshot with a YAML manifest under
the corpus directory.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("institution", "", "affiliation string to match (e.g. \"Mila\")")
	harvestCmd.Flags().String("venue", "", "restrict to a single venue")
	harvestCmd.Flags().Int("from", 0, "first publication year (default from config)")
	harvestCmd.Flags().Int("to", 0, "last publication year (default from config)")
	harvestCmd.Flags().String("output", "", "snapshot name (default: harvest-<institution-or-venue>)")
	harvestCmd.Flags().Int("max-papers", 0, "cap records per source (0 = no cap)")
	harvestCmd.Flags().Float64("rps", 1, "requests per second per source")
	harvestCmd.Flags().Bool("no-semantic-scholar", false, "skip the Semantic Scholar source")
	harvestCmd.Flags().Bool("no-openalex", false, "skip the OpenAlex source")
	harvestCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	institution, _ := cmd.Flags().GetString("institution")
	venue, _ := cmd.Flags().GetString("venue")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	output, _ := cmd.Flags().GetString("output")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	rps, _ := cmd.Flags().GetFloat64("rps")
	noSS, _ := cmd.Flags().GetBool("no-semantic-scholar")
	noOA, _ := cmd.Flags().GetBool("no-openalex")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		YearFrom:              2019,
		YearTo:                2024,
		RequestsPerSecond:     rps,
		MaxPapers:             maxPapers,
		EnableSemanticScholar: !noSS,
		EnableOpenAlex:        !noOA,
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", ""),
		OpenAlexMailto:        secretDefault("openalex-email", ""),
		CorpusDir:             corpusDir(cmd),
	}

	client := httputil.NewRateLimitedClient(&http.Client{Timeout: cfg.Timeout}, rps)
	var sources []harvest.Source
	if cfg.EnableSemanticScholar {
		sources = append(sources, &harvest.SemanticScholarSource{
			Client: client,
			APIKey: cfg.SemanticScholarAPIKey,
		})
	}
	if cfg.EnableOpenAlex {
		sources = append(sources, &harvest.OpenAlexSource{
			Client: httputil.NewRateLimitedClient(&http.Client{Timeout: cfg.Timeout}, rps),
			Mailto: cfg.OpenAlexMailto,
		})
	}

	query := harvest.Query{
		Institution: institution,
		Venue:       venue,
		YearFrom:    from,
		YearTo:      to,
	}

	out, err := harvest.Run(context.Background(), query, sources, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if output == "" {
		output = "harvest-" + snapshotSlug(institution, venue)
	}
	path, err := harvest.WriteSnapshot(cfg.CorpusDir, output, query, out)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d papers written to %s\n", len(out.Papers), path)
	return nil
}

// snapshotSlug builds a filesystem-safe snapshot name from the query.
func snapshotSlug(institution, venue string) string {
	s := institution
	if s == "" {
		s = venue
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			out = append(out, c)
		case c == ' ' || c == '-' || c == '_':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "corpus"
	}
	return string(out)
}
