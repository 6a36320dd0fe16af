// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery resolves papers to downloadable PDF URLs through
// per-venue locators.
// Implements: prd005-discovery (R1-R4);
//
//	docs/ARCHITECTURE.md § Discovery.
package discovery

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Locator resolves a single paper to a PDF URL. Locators report found=false
// for papers outside their competence; an error means the lookup itself
// failed and another locator may still succeed.
type Locator interface {
	Name() string
	Locate(ctx context.Context, paper *types.Paper, cfg types.DiscoveryConfig) (types.PDFRecord, bool, error)
}

// defaultMinConfidence drops hits the locator itself does not trust.
const defaultMinConfidence = 0.5

// Output holds discovery results and per-paper failures.
type Output struct {
	Records  []types.PDFRecord
	NotFound []string
	Errors   []string
}

// Run resolves each paper against the locator chain in order; the first
// hit at or above the confidence floor wins (R2.1). Locator errors are
// recorded and the chain continues (R2.2). Papers that exhaust the chain
// land in NotFound.
func Run(ctx context.Context, papers []types.Paper, locators []Locator, cfg types.DiscoveryConfig, w io.Writer) (Output, error) {
	if len(locators) == 0 {
		return Output{}, fmt.Errorf("no locators configured")
	}
	minConf := cfg.MinConfidence
	if minConf <= 0 {
		minConf = defaultMinConfidence
	}

	var out Output
	for i := range papers {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		p := &papers[i]
		found := false
		for _, loc := range locators {
			rec, ok, err := loc.Locate(ctx, p, cfg)
			if err != nil {
				out.Errors = append(out.Errors, fmt.Sprintf("%s: %s: %v", p.ID, loc.Name(), err))
				continue
			}
			if !ok || rec.Confidence < minConf {
				continue
			}
			rec.PaperID = p.ID
			out.Records = append(out.Records, rec)
			fmt.Fprintf(w, "found:    %s (%s, %.2f)\n", p.ID, rec.Source, rec.Confidence)
			found = true
			break
		}
		if !found {
			out.NotFound = append(out.NotFound, p.ID)
			fmt.Fprintf(w, "missing:  %s\n", p.ID)
		}
	}

	fmt.Fprintf(w, "\nDiscovery summary: %d found, %d missing, %d locator errors\n",
		len(out.Records), len(out.NotFound), len(out.Errors))
	return out, nil
}
