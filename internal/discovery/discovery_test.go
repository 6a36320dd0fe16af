// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

func testConfig() types.DiscoveryConfig {
	return types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "corpus-engine-test/0.1"},
	}
}

type fakeLocator struct {
	name string
	rec  types.PDFRecord
	ok   bool
	err  error
}

func (f *fakeLocator) Name() string { return f.name }

func (f *fakeLocator) Locate(_ context.Context, _ *types.Paper, _ types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	return f.rec, f.ok, f.err
}

func TestRun_FirstConfidentHitWins(t *testing.T) {
	locators := []Locator{
		&fakeLocator{name: "weak", rec: types.PDFRecord{URL: "http://weak", Source: "weak", Confidence: 0.3}, ok: true},
		&fakeLocator{name: "strong", rec: types.PDFRecord{URL: "http://strong", Source: "strong", Confidence: 0.9}, ok: true},
	}
	papers := []types.Paper{{ID: "p1", Title: "T"}}

	var buf bytes.Buffer
	out, err := Run(context.Background(), papers, locators, testConfig(), &buf)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records", len(out.Records))
	}
	// The weak hit falls below the default floor; the strong one wins.
	if out.Records[0].Source != "strong" {
		t.Errorf("Source = %q, want strong", out.Records[0].Source)
	}
	if out.Records[0].PaperID != "p1" {
		t.Errorf("PaperID = %q", out.Records[0].PaperID)
	}
}

func TestRun_ErrorsContinueChain(t *testing.T) {
	locators := []Locator{
		&fakeLocator{name: "broken", err: fmt.Errorf("timeout")},
		&fakeLocator{name: "ok", rec: types.PDFRecord{URL: "http://x", Source: "ok", Confidence: 0.8}, ok: true},
	}
	papers := []types.Paper{{ID: "p1"}}

	var buf bytes.Buffer
	out, err := Run(context.Background(), papers, locators, testConfig(), &buf)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.Records) != 1 || len(out.Errors) != 1 {
		t.Errorf("records=%d errors=%d, want 1/1", len(out.Records), len(out.Errors))
	}
}

func TestRun_NotFound(t *testing.T) {
	locators := []Locator{&fakeLocator{name: "none"}}
	papers := []types.Paper{{ID: "p1"}, {ID: "p2"}}

	var buf bytes.Buffer
	out, err := Run(context.Background(), papers, locators, testConfig(), &buf)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.NotFound) != 2 {
		t.Errorf("NotFound = %v", out.NotFound)
	}
}

func TestHarvestedLocator(t *testing.T) {
	l := &HarvestedLocator{}

	rec, ok, err := l.Locate(context.Background(), &types.Paper{OpenAccessURL: "https://arxiv.org/pdf/1"}, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://arxiv.org/pdf/1" {
		t.Errorf("URL = %q", rec.URL)
	}

	if _, ok, _ := l.Locate(context.Background(), &types.Paper{}, testConfig()); ok {
		t.Error("should decline papers without an OA URL")
	}
}

func TestArxivLocator(t *testing.T) {
	l := &ArxivLocator{}
	rec, ok, err := l.Locate(context.Background(), &types.Paper{ArxivID: "2301.07041"}, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://arxiv.org/pdf/2301.07041" {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestNatureLocator(t *testing.T) {
	l := &NatureLocator{}

	rec, ok, err := l.Locate(context.Background(), &types.Paper{DOI: "10.1038/s41586-021-03819-2"}, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://www.nature.com/articles/s41586-021-03819-2.pdf" {
		t.Errorf("URL = %q", rec.URL)
	}

	if _, ok, _ := l.Locate(context.Background(), &types.Paper{DOI: "10.1145/xyz"}, testConfig()); ok {
		t.Error("should decline non-Nature DOIs")
	}
}

func TestOpenAlexLocator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"best_oa_location": {"pdf_url": "https://oa.example/x.pdf"}}`)
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL + "/"
	defer func() { openAlexWorksBase = old }()

	l := &OpenAlexLocator{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	rec, ok, err := l.Locate(context.Background(), &types.Paper{DOI: "10.1/x"}, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://oa.example/x.pdf" {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestHALLocator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response": {"docs": [
			{"title_s": ["Another Paper"], "fileMain_s": "https://hal.science/a.pdf"},
			{"title_s": ["Learning to Learn"], "fileMain_s": "https://hal.science/b.pdf"}
		]}}`)
	}))
	defer ts.Close()

	old := halSearchBase
	halSearchBase = ts.URL
	defer func() { halSearchBase = old }()

	l := &HALLocator{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	rec, ok, err := l.Locate(context.Background(), &types.Paper{Title: "Learning to Learn!"}, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://hal.science/b.pdf" {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestCORELocator_NeedsKey(t *testing.T) {
	l := &CORELocator{}
	if _, ok, err := l.Locate(context.Background(), &types.Paper{Title: "X"}, testConfig()); ok || err != nil {
		t.Errorf("Locate without key = %v, %v", ok, err)
	}
}

func TestCORELocator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer core-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"totalHits": 1, "results": [{"title": "Deep Nets", "downloadUrl": "https://core.ac.uk/d/1.pdf"}]}`)
	}))
	defer ts.Close()

	old := coreSearchBase
	coreSearchBase = ts.URL
	defer func() { coreSearchBase = old }()

	cfg := testConfig()
	cfg.COREAPIKey = "core-key"

	l := &CORELocator{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	rec, ok, err := l.Locate(context.Background(), &types.Paper{Title: "Deep Nets"}, cfg)
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != "https://core.ac.uk/d/1.pdf" {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestJMLRLocator(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/papers/v21/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `<dl>
<dt><b>Wide Nets and Narrow Margins</b></dt>
<dd>[<a href="/papers/volume21/19-001/19-001.pdf">pdf</a>]</dd>
<dt>Another Entry</dt>
<dd>[<a href="/papers/volume21/19-002/19-002.pdf">pdf</a>]</dd>
</dl>`)
	}))
	defer ts.Close()

	old := jmlrBase
	jmlrBase = ts.URL
	defer func() { jmlrBase = old }()

	l := &JMLRLocator{Client: httputil.NewRateLimitedClient(ts.Client(), 0)}
	paper := &types.Paper{Title: "Wide Nets and Narrow Margins", Year: 2020, NormVenue: "JMLR"}

	rec, ok, err := l.Locate(context.Background(), paper, testConfig())
	if err != nil || !ok {
		t.Fatalf("Locate() = %v, %v", ok, err)
	}
	if rec.URL != ts.URL+"/papers/volume21/19-001/19-001.pdf" {
		t.Errorf("URL = %q", rec.URL)
	}

	// Second paper from the same volume reuses the cached index.
	paper2 := &types.Paper{Title: "Another Entry", Year: 2020, NormVenue: "JMLR"}
	if _, ok, err := l.Locate(context.Background(), paper2, testConfig()); err != nil || !ok {
		t.Fatalf("second Locate() = %v, %v", ok, err)
	}
	if hits != 1 {
		t.Errorf("volume page fetched %d times, want 1", hits)
	}

	// Non-JMLR venues decline immediately.
	if _, ok, _ := l.Locate(context.Background(), &types.Paper{NormVenue: "ICML", Year: 2020}, testConfig()); ok {
		t.Error("should decline non-JMLR venues")
	}
}

func TestParseVolumeIndex(t *testing.T) {
	idx := parseVolumeIndex(`<dt><i>A</i> Title</dt><dd><a href="https://x/y.pdf">pdf</a></dd>`)
	if idx["a title"] != "https://x/y.pdf" {
		t.Errorf("idx = %v", idx)
	}
}
