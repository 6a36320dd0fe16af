// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"strings"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// naturePDFBase serves article PDFs by DOI suffix. Declared as a var so
// tests can substitute an httptest server.
var naturePDFBase = "https://www.nature.com/articles/"

// natureDOIPrefix is the Springer Nature DOI registrant prefix.
const natureDOIPrefix = "10.1038/"

// NatureLocator maps Springer Nature DOIs straight to the nature.com PDF
// URL (R1.7). Whether the PDF is paywalled only shows up at download time,
// hence the middling confidence.
type NatureLocator struct{}

func (l *NatureLocator) Name() string { return "nature" }

func (l *NatureLocator) Locate(_ context.Context, paper *types.Paper, _ types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	if !strings.HasPrefix(paper.DOI, natureDOIPrefix) {
		return types.PDFRecord{}, false, nil
	}
	suffix := strings.TrimPrefix(paper.DOI, natureDOIPrefix)
	return types.PDFRecord{
		URL:        naturePDFBase + suffix + ".pdf",
		Source:     "nature",
		Confidence: 0.6,
	}, true, nil
}
