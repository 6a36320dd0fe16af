// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/corpus-engine/internal/dedup"
	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// coreSearchBase is the CORE v3 works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var coreSearchBase = "https://api.core.ac.uk/v3/search/works"

// CORELocator searches the CORE aggregator by title (R1.5). Requires an
// API key; without one the locator declines every paper.
type CORELocator struct {
	Client *httputil.RateLimitedClient
}

func (l *CORELocator) Name() string { return "core" }

func (l *CORELocator) Locate(ctx context.Context, paper *types.Paper, cfg types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if cfg.COREAPIKey == "" || paper.Title == "" {
		return types.PDFRecord{}, false, nil
	}

	params := url.Values{
		"q":     {fmt.Sprintf(`title:"%s"`, paper.Title)},
		"limit": {"5"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coreSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("creating CORE request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Authorization", "Bearer "+cfg.COREAPIKey)

	resp, err := l.Client.Do(ctx, req, 0)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("CORE API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PDFRecord{}, false, fmt.Errorf("CORE API returned HTTP %d", resp.StatusCode)
	}

	var cr coreResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("parsing CORE response: %w", err)
	}

	want := dedup.NormalizeTitle(paper.Title)
	for _, r := range cr.Results {
		if r.DownloadURL == "" {
			continue
		}
		if dedup.NormalizeTitle(r.Title) == want {
			return types.PDFRecord{
				URL:        r.DownloadURL,
				Source:     "core",
				Confidence: 0.7,
			}, true, nil
		}
	}
	return types.PDFRecord{}, false, nil
}

// CORE API JSON structures.
type coreResponse struct {
	TotalHits int          `json:"totalHits"`
	Results   []coreResult `json:"results"`
}

type coreResult struct {
	Title       string `json:"title"`
	DownloadURL string `json:"downloadUrl"`
}
