// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/discovery"
	"github.com/pdiddy/corpus-engine/internal/harvest"
	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Locate open-access PDF URLs for harvested papers",
	Long: `Discover runs each paper through a chain of PDF locators (harvested
open-access URL, arXiv, OpenAlex, HAL, CORE, JMLR/TMLR indexes, Nature).
The first location at or above the confidence floor wins. Discovered
records are written as JSON for the download stage.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("input", "", "paper snapshot to resolve (required)")
	discoverCmd.Flags().String("output", "", "PDF record file (default: <corpus-dir>/index/pdf-records.json)")
	discoverCmd.Flags().Float64("min-confidence", 0, "drop locations below this confidence (default 0.5)")
	discoverCmd.Flags().Float64("rps", 2, "discovery requests per second")
	discoverCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input snapshot required")
	}
	output, _ := cmd.Flags().GetString("output")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	rps, _ := cmd.Flags().GetFloat64("rps")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		COREAPIKey:        secretDefault("core-api-key", ""),
		MinConfidence:     minConfidence,
		RequestsPerSecond: rps,
	}

	papers, err := harvest.ReadSnapshot(input)
	if err != nil {
		return err
	}

	client := httputil.NewRateLimitedClient(&http.Client{Timeout: cfg.Timeout}, rps)
	locators := []discovery.Locator{
		&discovery.HarvestedLocator{},
		&discovery.ArxivLocator{},
		&discovery.OpenAlexLocator{Client: client, Mailto: secretDefault("openalex-email", "")},
		&discovery.HALLocator{Client: client},
		&discovery.CORELocator{Client: client},
		&discovery.JMLRLocator{Client: client},
		&discovery.NatureLocator{},
	}

	out, err := discovery.Run(context.Background(), papers, locators, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if output == "" {
		dir := filepath.Join(corpusDir(cmd), "index")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}
		output = filepath.Join(dir, "pdf-records.json")
	}
	data, err := json.MarshalIndent(out.Records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	fmt.Printf("\n%d PDF locations written to %s\n", len(out.Records), output)
	return nil
}
