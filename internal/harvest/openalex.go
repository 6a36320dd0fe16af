// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// openAlexPageLimit is the maximum per_page value OpenAlex accepts.
const openAlexPageLimit = 200

// OpenAlexSource harvests from the OpenAlex Works API (R2.2). It uses
// cursor paging, which OpenAlex requires beyond 10k results.
type OpenAlexSource struct {
	Client *httputil.RateLimitedClient
	// Mailto is sent for polite pool access.
	Mailto string
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Harvest pages through the Works endpoint with cursor paging.
func (s *OpenAlexSource) Harvest(ctx context.Context, query Query, cfg types.HarvestConfig) ([]types.Paper, error) {
	batch := cfg.BatchSize
	if batch <= 0 || batch > openAlexPageLimit {
		batch = openAlexPageLimit
	}

	var papers []types.Paper
	cursor := "*"
	for cursor != "" {
		params := url.Values{
			"per_page": {fmt.Sprintf("%d", batch)},
			"cursor":   {cursor},
		}
		if f := buildOpenAlexFilter(query); f != "" {
			params.Set("filter", f)
		}
		if s.Mailto != "" {
			params.Set("mailto", s.Mailto)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := s.Client.Do(ctx, req, 0)
		if err != nil {
			return nil, fmt.Errorf("OpenAlex API request: %w", err)
		}

		var oar openAlexResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&oar)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing OpenAlex response: %w", decodeErr)
		}

		for _, work := range oar.Results {
			p := work.toPaper()
			if !inWindow(p.Year, query.YearFrom, query.YearTo) {
				continue
			}
			papers = append(papers, p)
			if cfg.MaxPapers > 0 && len(papers) >= cfg.MaxPapers {
				return papers, nil
			}
		}

		if len(oar.Results) == 0 {
			break
		}
		cursor = oar.Meta.NextCursor
	}
	return papers, nil
}

// buildOpenAlexFilter assembles the filter parameter. Affiliation matching
// uses the raw affiliation search filter so unregistered institution name
// variants still match.
func buildOpenAlexFilter(q Query) string {
	var filters []string
	if q.Institution != "" {
		filters = append(filters, "raw_affiliation_strings.search:"+q.Institution)
	}
	if q.Venue != "" {
		filters = append(filters, "primary_location.source.display_name.search:"+q.Venue)
	}
	if q.YearFrom != 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", q.YearFrom))
	}
	if q.YearTo != 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", q.YearTo))
	}
	return strings.Join(filters, ",")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	BestOALocation        *openAlexLocation    `json:"best_oa_location"`
	Concepts              []openAlexConcept    `json:"concepts"`
	IDs                   openAlexIDs          `json:"ids"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	PDFURL         string         `json:"pdf_url"`
	LandingPageURL string         `json:"landing_page_url"`
	Source         *openAlexVenue `json:"source"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}

type openAlexIDs struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
}

// conceptScoreFloor drops the long tail of low-signal concept tags.
const conceptScoreFloor = 0.3

// toPaper maps an OpenAlex work into the unified Paper shape.
func (work openAlexWork) toPaper() types.Paper {
	p := types.Paper{
		Title:     work.Title,
		Abstract:  reconstructAbstract(work.AbstractInvertedIndex),
		Year:      work.PublicationYear,
		Citations: work.CitedByCount,
		Source:    "openalex",
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
		}
	}

	if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			p.Date = t
		}
	}

	if work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		p.Venue = work.PrimaryLocation.Source.DisplayName
	}
	if work.BestOALocation != nil && work.BestOALocation.PDFURL != "" {
		p.OpenAccessURL = work.BestOALocation.PDFURL
	}

	// Bare DOI without the https://doi.org/ prefix.
	if work.DOI != "" {
		p.DOI = strings.TrimPrefix(work.DOI, "https://doi.org/")
	}

	for _, c := range work.Concepts {
		if c.Score >= conceptScoreFloor {
			p.Fields = append(p.Fields, c.DisplayName)
		}
	}

	nativeID := work.ID
	if i := strings.LastIndex(nativeID, "/"); i >= 0 {
		nativeID = nativeID[i+1:]
	}
	p.ID = PaperID(p.ArxivID, p.DOI, nativeID)
	return p
}
