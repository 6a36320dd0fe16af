// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

const semanticPage1 = `{
  "total": 3,
  "offset": 0,
  "next": 2,
  "data": [
    {
      "paperId": "S2-abc",
      "title": "Attention Is All You Need",
      "abstract": "We propose a new architecture.",
      "year": 2020,
      "publicationDate": "2020-06-12",
      "venue": "NeurIPS",
      "citationCount": 90000,
      "authors": [{"authorId": "A1", "name": "Ashish Vaswani"}],
      "externalIds": {"ArXiv": "1706.03762", "DOI": "10.5555/3295222.3295349"},
      "fieldsOfStudy": ["Computer Science"],
      "openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762"}
    },
    {
      "paperId": "S2-old",
      "title": "Too Old",
      "year": 2012,
      "venue": "NIPS",
      "authors": [],
      "externalIds": {}
    }
  ]
}`

const semanticPage2 = `{
  "total": 3,
  "offset": 2,
  "next": 0,
  "data": [
    {
      "paperId": "S2-def",
      "title": "BERT",
      "year": 2019,
      "venue": "NAACL",
      "citationCount": 70000,
      "authors": [{"authorId": "A3", "name": "Jacob Devlin"}],
      "externalIds": {"DOI": "10.18653/v1/N19-1423"}
    }
  ]
}`

func TestSemanticScholarSource_Harvest(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, semanticPage1)
			return
		}
		fmt.Fprint(w, semanticPage2)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	src := &SemanticScholarSource{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	papers, err := src.Harvest(context.Background(), Query{Institution: "Mila", YearFrom: 2019, YearTo: 2024}, testConfig())
	if err != nil {
		t.Fatalf("Harvest() error: %v", err)
	}

	if requests != 2 {
		t.Errorf("got %d requests, want 2 (offset paging)", requests)
	}
	// The 2012 record falls outside the window.
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}

	p := papers[0]
	if p.ID != "1706.03762" {
		t.Errorf("ID = %q, want arXiv-derived slug", p.ID)
	}
	if p.Venue != "NeurIPS" || p.Citations != 90000 {
		t.Errorf("venue/citations = %q/%d", p.Venue, p.Citations)
	}
	if p.OpenAccessURL == "" {
		t.Error("OpenAccessURL not mapped")
	}
	if papers[1].ID != "10.18653-v1-N19-1423" {
		t.Errorf("DOI slug = %q", papers[1].ID)
	}
}

func TestSemanticScholarSource_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	src := &SemanticScholarSource{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	if _, err := src.Harvest(context.Background(), Query{Institution: "Mila"}, testConfig()); err == nil {
		t.Error("Harvest() should surface HTTP errors")
	}
}

const openAlexPage1 = `{
  "meta": {"count": 2, "per_page": 1, "next_cursor": "cursor-2"},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Graph Attention Networks",
      "doi": "https://doi.org/10.5555/gat",
      "publication_date": "2021-03-01",
      "publication_year": 2021,
      "cited_by_count": 12000,
      "authorships": [{"author": {"id": "A1", "display_name": "Petar Velickovic"}}],
      "abstract_inverted_index": {"We": [0], "present": [1], "GAT": [2]},
      "primary_location": {"source": {"display_name": "ICLR"}},
      "best_oa_location": {"pdf_url": "https://arxiv.org/pdf/1710.10903"},
      "concepts": [
        {"display_name": "Graph neural network", "level": 2, "score": 0.9},
        {"display_name": "Mathematics", "level": 0, "score": 0.1}
      ]
    }
  ]
}`

const openAlexPage2 = `{
  "meta": {"count": 2, "per_page": 1, "next_cursor": ""},
  "results": []
}`

func TestOpenAlexSource_Harvest(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "*" {
			fmt.Fprint(w, openAlexPage1)
			return
		}
		fmt.Fprint(w, openAlexPage2)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL
	defer func() { openAlexAPIBase = old }()

	src := &OpenAlexSource{Client: httputil.NewRateLimitedClient(ts.Client(), 0), Mailto: "ops@example.org"}
	papers, err := src.Harvest(context.Background(), Query{Institution: "Mila", YearFrom: 2019, YearTo: 2024}, testConfig())
	if err != nil {
		t.Fatalf("Harvest() error: %v", err)
	}

	if requests != 2 {
		t.Errorf("got %d requests, want 2 (cursor paging)", requests)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}

	p := papers[0]
	if p.DOI != "10.5555/gat" {
		t.Errorf("DOI = %q, want bare DOI", p.DOI)
	}
	if p.Venue != "ICLR" {
		t.Errorf("Venue = %q, want ICLR", p.Venue)
	}
	if p.Abstract != "We present GAT" {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	// The 0.1-score concept is below the floor.
	if len(p.Fields) != 1 || p.Fields[0] != "Graph neural network" {
		t.Errorf("Fields = %v", p.Fields)
	}
	if p.OpenAccessURL != "https://arxiv.org/pdf/1710.10903" {
		t.Errorf("OpenAccessURL = %q", p.OpenAccessURL)
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSnapshot(dir, "mila-2019-2024", Query{Institution: "Mila", YearFrom: 2019, YearTo: 2024}, Output{
		Papers: []types.Paper{
			{ID: "1", Title: "One", Year: 2020, Venue: "NeurIPS"},
			{ID: "2", Title: "Two", Year: 2021, Venue: "ICML"},
		},
		PerSource: map[string]int{"semantic_scholar": 2},
	})
	if err != nil {
		t.Fatalf("WriteSnapshot() error: %v", err)
	}

	papers, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}
	if papers[0].Title != "One" {
		t.Errorf("Title = %q", papers[0].Title)
	}
}
