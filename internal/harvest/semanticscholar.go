// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,year,publicationDate,venue,citationCount,externalIds,fieldsOfStudy,openAccessPdf"

// semanticPageLimit is the maximum page size the graph API accepts.
const semanticPageLimit = 100

// SemanticScholarSource harvests from the Semantic Scholar Graph API (R2.1).
type SemanticScholarSource struct {
	Client *httputil.RateLimitedClient
	APIKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Harvest pages through the paper search endpoint with offset paging until
// the window cap or the result set is exhausted.
func (s *SemanticScholarSource) Harvest(ctx context.Context, query Query, cfg types.HarvestConfig) ([]types.Paper, error) {
	batch := cfg.BatchSize
	if batch <= 0 || batch > semanticPageLimit {
		batch = semanticPageLimit
	}

	var papers []types.Paper
	offset := 0
	for {
		params := url.Values{
			"query":  {buildSemanticQuery(query)},
			"limit":  {fmt.Sprintf("%d", batch)},
			"offset": {fmt.Sprintf("%d", offset)},
			"fields": {semanticFields},
		}
		if yr := yearRange(query.YearFrom, query.YearTo); yr != "" {
			params.Set("year", yr)
		}
		if query.Venue != "" {
			params.Set("venue", query.Venue)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)
		if s.APIKey != "" {
			req.Header.Set("x-api-key", s.APIKey)
		}

		resp, err := s.Client.Do(ctx, req, 0)
		if err != nil {
			return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
		}

		var sr semanticResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing Semantic Scholar response: %w", decodeErr)
		}

		for _, sp := range sr.Data {
			p := sp.toPaper()
			if !inWindow(p.Year, query.YearFrom, query.YearTo) {
				continue
			}
			papers = append(papers, p)
			if cfg.MaxPapers > 0 && len(papers) >= cfg.MaxPapers {
				return papers, nil
			}
		}

		if sr.Next == 0 || len(sr.Data) == 0 {
			return papers, nil
		}
		offset = sr.Next
	}
}

// buildSemanticQuery combines query fields into a search string.
func buildSemanticQuery(q Query) string {
	var parts []string
	if q.Institution != "" {
		parts = append(parts, q.Institution)
	}
	if q.Venue != "" {
		parts = append(parts, q.Venue)
	}
	return strings.Join(parts, " ")
}

// yearRange returns a Semantic Scholar year filter string (e.g. "2019-2024").
func yearRange(from, to int) string {
	switch {
	case from != 0 && to != 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from != 0:
		return fmt.Sprintf("%d-", from)
	case to != 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Venue           string              `json:"venue"`
	CitationCount   int                 `json:"citationCount"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	FieldsOfStudy   []string            `json:"fieldsOfStudy"`
	OpenAccessPDF   *semanticOAPDF      `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}

type semanticOAPDF struct {
	URL string `json:"url"`
}

// toPaper maps a Semantic Scholar record into the unified Paper shape.
func (sp semanticPaper) toPaper() types.Paper {
	p := types.Paper{
		Title:     sp.Title,
		Abstract:  sp.Abstract,
		Year:      sp.Year,
		Venue:     sp.Venue,
		Citations: sp.CitationCount,
		Source:    "semantic_scholar",
		DOI:       sp.ExternalIDs.DOI,
		ArxivID:   sp.ExternalIDs.ArXiv,
		Fields:    sp.FieldsOfStudy,
	}

	for _, a := range sp.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}

	if sp.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", sp.PublicationDate); err == nil {
			p.Date = t
		}
	}
	if sp.OpenAccessPDF != nil {
		p.OpenAccessURL = sp.OpenAccessPDF.URL
	}

	p.ID = PaperID(p.ArxivID, p.DOI, sp.PaperID)
	return p
}

// PaperID derives the record slug from the strongest identifier available:
// arXiv ID, then DOI (with path separators replaced), then the source-native ID.
func PaperID(arxivID, doi, nativeID string) string {
	switch {
	case arxivID != "":
		return arxivID
	case doi != "":
		return strings.NewReplacer("/", "-", ":", "-").Replace(doi)
	default:
		return nativeID
	}
}
