// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations refreshes citation counts from Google Scholar.
// Implements: prd008-corpus R4.1-R4.3 (citation refresh);
//
//	docs/ARCHITECTURE.md § Corpus Store.
package citations

import (
	"context"
	"fmt"
	"io"
	"time"

	gs "github.com/serpapi/google-search-results-golang"

	"github.com/pdiddy/corpus-engine/internal/dedup"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

const defaultDelay = 2 * time.Second

// searchJSON runs one SerpAPI query. Tests substitute this to avoid
// network calls.
var searchJSON = func(params map[string]string, apiKey string) (map[string]any, error) {
	search := gs.NewGoogleSearch(params, apiKey)
	return search.GetJSON()
}

// Updater persists a refreshed citation count. *corpus.Store satisfies it.
type Updater interface {
	UpdateCitations(ctx context.Context, paperID string, citations int) (bool, error)
}

// Summary aggregates a refresh run.
type Summary struct {
	Updated  int
	NotFound int
	Failed   int
}

// Lookup queries Google Scholar for the paper title and returns its
// citation count. The top organic result must match the title after
// normalization; a near-miss from Scholar's fuzzy search reports not
// found rather than a wrong count.
func Lookup(title, apiKey string) (int, bool, error) {
	params := map[string]string{
		"engine": "google_scholar",
		"q":      title,
	}
	response, err := searchJSON(params, apiKey)
	if err != nil {
		return 0, false, fmt.Errorf("scholar search: %w", err)
	}

	results, ok := response["organic_results"].([]any)
	if !ok || len(results) == 0 {
		return 0, false, nil
	}
	top, ok := results[0].(map[string]any)
	if !ok {
		return 0, false, nil
	}

	gotTitle, _ := top["title"].(string)
	if dedup.NormalizeTitle(gotTitle) != dedup.NormalizeTitle(title) {
		return 0, false, nil
	}

	links, ok := top["inline_links"].(map[string]any)
	if !ok {
		return 0, true, nil
	}
	citedBy, ok := links["cited_by"].(map[string]any)
	if !ok {
		return 0, true, nil
	}
	total, _ := citedBy["total"].(float64)
	return int(total), true, nil
}

// Run refreshes citation counts for every paper, throttled by cfg.Delay.
// Lookup failures do not stop the batch.
func Run(ctx context.Context, store Updater, papers []types.Paper, cfg types.CitationsConfig, w io.Writer) (Summary, error) {
	if cfg.SerpAPIKey == "" {
		return Summary{}, fmt.Errorf("SerpAPI key not configured")
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = defaultDelay
	}

	var summary Summary
	for i := range papers {
		paper := &papers[i]
		if i > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(delay):
			}
		}

		count, found, err := Lookup(paper.Title, cfg.SerpAPIKey)
		if err != nil {
			summary.Failed++
			fmt.Fprintf(w, "failed:    %s (%v)\n", paper.ID, err)
			continue
		}
		if !found {
			summary.NotFound++
			fmt.Fprintf(w, "not found: %s\n", paper.ID)
			continue
		}

		if _, err := store.UpdateCitations(ctx, paper.ID, count); err != nil {
			summary.Failed++
			fmt.Fprintf(w, "failed:    %s (%v)\n", paper.ID, err)
			continue
		}
		summary.Updated++
		fmt.Fprintf(w, "updated:   %s (%d citations)\n", paper.ID, count)
	}

	fmt.Fprintf(w, "\nCitation refresh: %d updated, %d not found, %d failed\n",
		summary.Updated, summary.NotFound, summary.Failed)
	return summary, nil
}
