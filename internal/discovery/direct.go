// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// arxivPDFBase resolves arXiv IDs to PDFs. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// HarvestedLocator reuses the open-access URL already captured during
// harvest. It goes first in the chain: no network round trip and the
// source API vouched for the link (R1.2).
type HarvestedLocator struct{}

func (l *HarvestedLocator) Name() string { return "harvested" }

func (l *HarvestedLocator) Locate(_ context.Context, paper *types.Paper, _ types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if paper.OpenAccessURL == "" {
		return types.PDFRecord{}, false, nil
	}
	return types.PDFRecord{
		URL:        paper.OpenAccessURL,
		Source:     "harvested",
		Confidence: 0.9,
	}, true, nil
}

// ArxivLocator builds the arxiv.org PDF URL for papers with an arXiv ID.
// No lookup needed; arXiv serves every listed ID.
type ArxivLocator struct{}

func (l *ArxivLocator) Name() string { return "arxiv" }

func (l *ArxivLocator) Locate(_ context.Context, paper *types.Paper, _ types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if paper.ArxivID == "" {
		return types.PDFRecord{}, false, nil
	}
	return types.PDFRecord{
		URL:        arxivPDFBase + paper.ArxivID,
		Source:     "arxiv",
		Confidence: 0.95,
	}, true, nil
}
