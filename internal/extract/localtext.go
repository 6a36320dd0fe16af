// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const defaultMaxPages = 12

// LocalText extracts plain text from the PDF at path without GROBID,
// reading at most maxPages pages. Pages that fail to decode are skipped;
// the result is whatever text the rest yields.
func LocalText(path string, maxPages int) (string, error) {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	var b strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in %s", path)
	}
	return text, nil
}
