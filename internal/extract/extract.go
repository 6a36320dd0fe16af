// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// TEIProcessor is the subset of the GROBID client the batch run needs.
// Nil means GROBID is unavailable and extraction falls back to local text.
type TEIProcessor interface {
	ProcessHeader(ctx context.Context, path string) ([]byte, error)
	ProcessFulltext(ctx context.Context, path string) ([]byte, error)
}

// Record is the extraction result for one paper, written to the output
// directory as JSON.
type Record struct {
	PaperID    string     `json:"paper_id"`
	Header     *Header    `json:"header,omitempty"`
	Indicators Indicators `json:"indicators"`

	// TextSource records where the scanned text came from: "grobid" or
	// "local".
	TextSource string `json:"text_source"`
}

// Summary aggregates a batch extraction run.
type Summary struct {
	Extracted int
	Fallback  int // papers processed with local text only
	Failed    int
}

// Run extracts every paper that has a PDF on disk. GROBID output is
// preferred; papers it cannot process fall back to local text extraction
// (R3.1). Records are written to cfg.OutputDir as <paper-id>.json.
func Run(ctx context.Context, proc TEIProcessor, papers []types.Paper, cfg types.ExtractionConfig, w io.Writer) (Summary, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	var summary Summary
	for i := range papers {
		paper := &papers[i]
		if paper.PDFPath == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		rec, err := extractOne(ctx, proc, paper, cfg)
		if err != nil {
			summary.Failed++
			fmt.Fprintf(w, "failed:    %s (%v)\n", paper.ID, err)
			continue
		}
		if rec.TextSource == "local" {
			summary.Fallback++
		}
		summary.Extracted++

		if err := writeRecord(cfg.OutputDir, rec); err != nil {
			return summary, err
		}
		fmt.Fprintf(w, "extracted: %s (%s, score %.2f)\n", paper.ID, rec.TextSource, rec.Indicators.Score)
	}

	fmt.Fprintf(w, "\nExtraction summary: %d extracted (%d local fallback), %d failed\n",
		summary.Extracted, summary.Fallback, summary.Failed)
	return summary, nil
}

func extractOne(ctx context.Context, proc TEIProcessor, paper *types.Paper, cfg types.ExtractionConfig) (Record, error) {
	rec := Record{PaperID: paper.ID}

	var text string
	if proc != nil {
		if teiHeader, err := proc.ProcessHeader(ctx, paper.PDFPath); err == nil {
			if h, err := ParseHeader(teiHeader); err == nil {
				h2 := h
				rec.Header = &h2
			}
		}
		if teiBody, err := proc.ProcessFulltext(ctx, paper.PDFPath); err == nil {
			if body, err := ParseFulltext(teiBody); err == nil && body != "" {
				text = body
				rec.TextSource = "grobid"
			}
		}
	}

	if text == "" {
		local, err := LocalText(paper.PDFPath, cfg.MaxPages)
		if err != nil {
			return rec, err
		}
		text = local
		rec.TextSource = "local"
	}

	rec.Indicators = Scan(text)
	rec.Indicators.PaperID = paper.ID
	return rec, nil
}

func writeRecord(dir string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record for %s: %w", rec.PaperID, err)
	}
	path := filepath.Join(dir, rec.PaperID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// ReadRecord loads a previously written extraction record.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parsing record %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}
