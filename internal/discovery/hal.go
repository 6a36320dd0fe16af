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

// halSearchBase is the HAL open archive search endpoint. Declared as a var
// so tests can substitute an httptest server.
var halSearchBase = "https://api.archives-ouvertes.fr/search/"

// HALLocator searches the HAL open archive by exact title (R1.4). HAL
// carries most francophone-institution output, including preprints the
// publisher keeps closed.
type HALLocator struct {
	Client *httputil.RateLimitedClient
}

func (l *HALLocator) Name() string { return "hal" }

func (l *HALLocator) Locate(ctx context.Context, paper *types.Paper, cfg types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if paper.Title == "" {
		return types.PDFRecord{}, false, nil
	}

	params := url.Values{
		"q":    {fmt.Sprintf(`title_t:"%s"`, paper.Title)},
		"fl":   {"title_s,fileMain_s"},
		"rows": {"5"},
		"wt":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, halSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("creating HAL request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := l.Client.Do(ctx, req, 0)
	if err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("HAL API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PDFRecord{}, false, fmt.Errorf("HAL API returned HTTP %d", resp.StatusCode)
	}

	var hr halResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return types.PDFRecord{}, false, fmt.Errorf("parsing HAL response: %w", err)
	}

	want := dedup.NormalizeTitle(paper.Title)
	for _, doc := range hr.Response.Docs {
		if doc.FileMain == "" {
			continue
		}
		for _, title := range doc.Titles {
			if dedup.NormalizeTitle(title) == want {
				return types.PDFRecord{
					URL:        doc.FileMain,
					Source:     "hal",
					Confidence: 0.8,
				}, true, nil
			}
		}
	}
	return types.PDFRecord{}, false, nil
}

// HAL API JSON structures. title_s is multivalued for multilingual deposits.
type halResponse struct {
	Response struct {
		Docs []halDoc `json:"docs"`
	} `json:"response"`
}

type halDoc struct {
	Titles   []string `json:"title_s"`
	FileMain string   `json:"fileMain_s"`
}
