// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

const teiHeaderSample = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title level="a" type="main">Scaling Laws for Sparse Models</title>
      </titleStmt>
      <sourceDesc>
        <biblStruct>
          <analytic>
            <author>
              <persName><forename type="first">Ada</forename><surname>Chen</surname></persName>
              <affiliation key="aff0">
                <orgName type="department">DIRO</orgName>
                <orgName type="institution">Université de Montréal</orgName>
              </affiliation>
            </author>
            <author>
              <persName><forename type="first">Ben</forename><forename type="middle">K</forename><surname>Osei</surname></persName>
              <affiliation key="aff1">
                <orgName type="institution">Mila</orgName>
              </affiliation>
            </author>
          </analytic>
          <idno type="DOI">10.1234/sparse.2023</idno>
        </biblStruct>
      </sourceDesc>
    </fileDesc>
    <profileDesc>
      <abstract>
        <div xmlns="http://www.tei-c.org/ns/1.0"><p>We study sparse scaling.</p><p>Results follow.</p></div>
      </abstract>
    </profileDesc>
  </teiHeader>
</TEI>`

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte(teiHeaderSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "Scaling Laws for Sparse Models" {
		t.Errorf("Title = %q", h.Title)
	}
	wantAuthors := []string{"Ada Chen", "Ben K Osei"}
	if len(h.Authors) != len(wantAuthors) {
		t.Fatalf("Authors = %v, want %v", h.Authors, wantAuthors)
	}
	for i, want := range wantAuthors {
		if h.Authors[i] != want {
			t.Errorf("Authors[%d] = %q, want %q", i, h.Authors[i], want)
		}
	}
	wantAffs := []string{"Université de Montréal", "Mila"}
	if len(h.Affiliations) != len(wantAffs) {
		t.Fatalf("Affiliations = %v, want %v", h.Affiliations, wantAffs)
	}
	if h.Abstract != "We study sparse scaling.\n\nResults follow." {
		t.Errorf("Abstract = %q", h.Abstract)
	}
	if h.DOI != "10.1234/sparse.2023" {
		t.Errorf("DOI = %q", h.DOI)
	}
}

func TestParseHeader_NoTitle(t *testing.T) {
	_, err := ParseHeader([]byte(`<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader/></TEI>`))
	if err == nil {
		t.Fatal("expected error for TEI without title")
	}
}

func TestParseHeader_BadXML(t *testing.T) {
	_, err := ParseHeader([]byte("not xml at all <"))
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

const teiFulltextSample = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader/>
  <text>
    <body>
      <div><head>Introduction</head><p>We train with 3 seeds.</p></div>
      <div><head>Experiments</head><p>Due to computational constraints we skip the largest model.</p></div>
    </body>
  </text>
</TEI>`

func TestParseFulltext(t *testing.T) {
	text, err := ParseFulltext([]byte(teiFulltextSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Introduction", "3 seeds", "computational constraints"} {
		if !bytes.Contains([]byte(text), []byte(want)) {
			t.Errorf("flattened text missing %q:\n%s", want, text)
		}
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantSeeds       int
		wantAblations   int
		wantConstraints int
		wantScoreMin    float64
		wantScoreMax    float64
	}{
		{
			name:          "well resourced paper",
			text:          "We average over 10 random seeds. Ablation studies in Section 5 confirm each component. Further ablations appear in the appendix.",
			wantSeeds:     10,
			wantAblations: 2,
			wantScoreMin:  0, wantScoreMax: 0,
		},
		{
			name:            "single seed with constraints",
			text:            "Due to computational constraints, we report results from a single seed.",
			wantSeeds:       1,
			wantConstraints: 1,
			wantScoreMin:    0.8, wantScoreMax: 0.8,
		},
		{
			name:         "no signals stated",
			text:         "We propose a new method and evaluate it on two benchmarks.",
			wantScoreMin: 0.4, wantScoreMax: 0.4,
		},
		{
			name:            "three seeds limited compute",
			text:            "Results use 3 seeds. We ran on limited computational resources. Ablation results are in Table 4.",
			wantSeeds:       3,
			wantAblations:   1,
			wantConstraints: 1,
			wantScoreMin:    0.3, wantScoreMax: 0.3,
		},
		{
			name:            "multiple constraint statements capped",
			text:            "Due to GPU constraints we use a small model. Training the full model was prohibitively expensive. Due to time constraints we omit tuning.",
			wantConstraints: 3,
			wantScoreMin:    0.8, wantScoreMax: 0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := Scan(tt.text)
			if ind.SeedCount != tt.wantSeeds {
				t.Errorf("SeedCount = %d, want %d", ind.SeedCount, tt.wantSeeds)
			}
			if ind.AblationMentions != tt.wantAblations {
				t.Errorf("AblationMentions = %d, want %d", ind.AblationMentions, tt.wantAblations)
			}
			if len(ind.ConstraintHits) != tt.wantConstraints {
				t.Errorf("ConstraintHits = %v, want %d hits", ind.ConstraintHits, tt.wantConstraints)
			}
			if ind.Score < tt.wantScoreMin-1e-9 || ind.Score > tt.wantScoreMax+1e-9 {
				t.Errorf("Score = %.2f, want in [%.2f, %.2f]", ind.Score, tt.wantScoreMin, tt.wantScoreMax)
			}
		})
	}
}

// fakeProcessor returns canned TEI documents.
type fakeProcessor struct {
	header   []byte
	fulltext []byte
	err      error
}

func (f *fakeProcessor) ProcessHeader(ctx context.Context, path string) ([]byte, error) {
	return f.header, f.err
}

func (f *fakeProcessor) ProcessFulltext(ctx context.Context, path string) ([]byte, error) {
	return f.fulltext, f.err
}

func TestRun_GrobidPath(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "p1.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.5"), 0o644); err != nil {
		t.Fatal(err)
	}

	proc := &fakeProcessor{header: []byte(teiHeaderSample), fulltext: []byte(teiFulltextSample)}
	papers := []types.Paper{
		{ID: "p1", PDFPath: pdfPath},
		{ID: "p2"}, // no PDF, skipped
	}
	cfg := types.ExtractionConfig{OutputDir: filepath.Join(dir, "out")}

	summary, err := Run(context.Background(), proc, papers, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Extracted != 1 || summary.Fallback != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	rec, err := ReadRecord(filepath.Join(cfg.OutputDir, "p1.json"))
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if rec.TextSource != "grobid" {
		t.Errorf("TextSource = %q, want grobid", rec.TextSource)
	}
	if rec.Header == nil || rec.Header.Title != "Scaling Laws for Sparse Models" {
		t.Errorf("Header = %+v", rec.Header)
	}
	if rec.Indicators.SeedCount != 3 {
		t.Errorf("SeedCount = %d, want 3", rec.Indicators.SeedCount)
	}
	if len(rec.Indicators.ConstraintHits) != 1 {
		t.Errorf("ConstraintHits = %v", rec.Indicators.ConstraintHits)
	}
}

func TestRun_FailsWithoutGrobidOrText(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "p1.pdf")
	// Not a parseable PDF, so local fallback fails too.
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.5 truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	proc := &fakeProcessor{err: errors.New("grobid down")}
	papers := []types.Paper{{ID: "p1", PDFPath: pdfPath}}
	cfg := types.ExtractionConfig{OutputDir: filepath.Join(dir, "out")}

	summary, err := Run(context.Background(), proc, papers, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || summary.Extracted != 0 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestLocalText_MissingFile(t *testing.T) {
	if _, err := LocalText("/nonexistent.pdf", 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
