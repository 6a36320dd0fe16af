// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/citations"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "Refresh citation counts from Google Scholar",
	Long: `Citations looks up each corpus paper on Google Scholar through SerpAPI
and updates its stored citation count. Lookups are throttled; papers whose
top Scholar result does not match the title are left untouched. The API
key comes from the serpapi-key secret or SERPAPI_KEY.`,
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().Duration("delay", 2*time.Second, "delay between Scholar lookups")
	citationsCmd.Flags().Int("limit", 0, "refresh at most this many papers (0 = all)")

	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	delay, _ := cmd.Flags().GetDuration("delay")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.All(context.Background())
	if err != nil {
		return err
	}
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}

	cfg := types.CitationsConfig{
		SerpAPIKey: secretDefault("serpapi-key", ""),
		Delay:      delay,
	}

	summary, err := citations.Run(context.Background(), store, papers, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d lookup(s) failed", summary.Failed)
	}
	return nil
}
