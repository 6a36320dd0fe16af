// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// openAlexWorksBase is the OpenAlex single-work endpoint. Declared as a var
// so tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works/"

// OpenAlexLocator asks OpenAlex for the best open-access location of a
// DOI-bearing paper (R1.3).
type OpenAlexLocator struct {
	Client *httputil.RateLimitedClient
	Mailto string
}

func (l *OpenAlexLocator) Name() string { return "openalex" }

func (l *OpenAlexLocator) Locate(ctx context.Context, paper *types.Paper, cfg types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if paper.DOI == "" {
		return types.PDFRecord{}, false, nil
	}

	apiURL := openAlexWorksBase + "https://doi.org/" + paper.DOI
	if l.Mailto != "" {
		apiURL += "?mailto=" + l.Mailto
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := l.Client.Do(ctx, req, 0)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.PDFRecord{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return types.PDFRecord{}, false, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var work struct {
		BestOALocation *struct {
			PDFURL string `json:"pdf_url"`
		} `json:"best_oa_location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	if work.BestOALocation == nil || work.BestOALocation.PDFURL == "" {
		return types.PDFRecord{}, false, nil
	}
	return types.PDFRecord{
		URL:        work.BestOALocation.PDFURL,
		Source:     "openalex",
		Confidence: 0.85,
	}, true, nil
}
