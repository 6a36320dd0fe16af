// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/pdiddy/corpus-engine/internal/dedup"
	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// jmlrBase serves volume indexes at /papers/vNN/ and the TMLR index at
// /tmlr/papers/. Declared as a var so tests can substitute an httptest
// server.
var jmlrBase = "https://jmlr.org"

// jmlrVolumeOffset: volume 1 appeared in 2000, so volume = year - 1999.
const jmlrVolumeOffset = 1999

// jmlrEntryPattern captures the PDF href and the anchor text of one index
// entry. JMLR volume pages are flat definition lists, stable since 2000.
var jmlrEntryPattern = regexp.MustCompile(`(?s)<dt>(.*?)</dt>.*?href="([^"]+\.pdf)"`)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// JMLRLocator scrapes jmlr.org volume indexes for JMLR papers and the TMLR
// index for TMLR papers (R1.6). Volume pages are cached per run; one fetch
// covers every paper in that volume.
type JMLRLocator struct {
	Client *httputil.RateLimitedClient

	mu    sync.Mutex
	cache map[string]map[string]string // page path → normalized title → PDF URL
}

func (l *JMLRLocator) Name() string { return "jmlr" }

func (l *JMLRLocator) Locate(ctx context.Context, paper *types.Paper, cfg types.DiscoveryConfig) (types.PDFRecord, bool, error) {
	venue := strings.ToUpper(paper.EffectiveVenue())
	var path string
	switch venue {
	case "JMLR":
		if paper.Year == 0 {
			return types.PDFRecord{}, false, nil
		}
		path = fmt.Sprintf("/papers/v%d/", paper.Year-jmlrVolumeOffset)
	case "TMLR":
		path = "/tmlr/papers/"
	default:
		return types.PDFRecord{}, false, nil
	}

	index, err := l.volumeIndex(ctx, path, cfg)
	if err != nil {
		return types.PDFRecord{}, false, err
	}

	pdfURL, ok := index[dedup.NormalizeTitle(paper.Title)]
	if !ok {
		return types.PDFRecord{}, false, nil
	}
	return types.PDFRecord{
		URL:        pdfURL,
		Source:     "jmlr",
		Confidence: 0.9,
	}, true, nil
}

// volumeIndex fetches and parses one index page, memoizing the result.
func (l *JMLRLocator) volumeIndex(ctx context.Context, path string, cfg types.DiscoveryConfig) (map[string]string, error) {
	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[string]map[string]string)
	}
	if idx, ok := l.cache[path]; ok {
		l.mu.Unlock()
		return idx, nil
	}
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jmlrBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating JMLR request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := l.Client.Do(ctx, req, 0)
	if err != nil {
		return nil, fmt.Errorf("JMLR request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JMLR returned HTTP %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading JMLR index: %w", err)
	}

	idx := parseVolumeIndex(string(body))

	l.mu.Lock()
	l.cache[path] = idx
	l.mu.Unlock()
	return idx, nil
}

// parseVolumeIndex extracts normalized-title → absolute PDF URL pairs from
// a volume index page.
func parseVolumeIndex(html string) map[string]string {
	idx := make(map[string]string)
	for _, m := range jmlrEntryPattern.FindAllStringSubmatch(html, -1) {
		title := dedup.NormalizeTitle(tagPattern.ReplaceAllString(m[1], " "))
		if title == "" {
			continue
		}
		href := m[2]
		if strings.HasPrefix(href, "/") {
			href = jmlrBase + href
		}
		idx[title] = href
	}
	return idx
}
