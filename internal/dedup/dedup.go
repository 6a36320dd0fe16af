// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup detects and merges duplicate paper records across sources.
// Implements: prd002-dedup (R1-R4);
//
//	docs/ARCHITECTURE.md § Dedup.
package dedup

import (
	"strings"
	"unicode"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// defaultAuthorOverlap is the minimum author-set overlap required before a
// title-only match is merged.
const defaultAuthorOverlap = 0.5

// Match records one merge decision for the duplicate report.
type Match struct {
	KeptID   string `json:"kept_id"`
	MergedID string `json:"merged_id"`

	// Reason is "identifier" for DOI/arXiv key matches or "title" for
	// normalized-title matches.
	Reason string `json:"reason"`

	// Sources lists the provenance of both records at merge time.
	Sources []string `json:"sources"`
}

// Output holds the deduplicated corpus and the merge log.
type Output struct {
	Papers  []types.Paper
	Matches []Match
}

// Removed returns the number of records merged away.
func (o Output) Removed() int { return len(o.Matches) }

// Run deduplicates the input corpus. Records sharing a DOI or arXiv ID
// merge unconditionally (R1.1); records sharing only a normalized title
// merge when their author sets overlap at or above the configured
// threshold, or when either side lists no authors (R1.2, R2.1).
// Field-filling keeps the richer record and the higher citation count
// (R3.1).
func Run(papers []types.Paper, cfg types.DedupConfig) Output {
	threshold := cfg.AuthorOverlapThreshold
	if threshold <= 0 {
		threshold = defaultAuthorOverlap
	}

	seen := make(map[string]int) // dedup key → index in kept
	var kept []types.Paper
	var matches []Match

	for _, p := range papers {
		if idx, key := findMatch(seen, kept, p, threshold); idx >= 0 {
			reason := "identifier"
			if strings.HasPrefix(key, "title:") {
				reason = "title"
			}
			mergeInto(&kept[idx], p)
			matches = append(matches, Match{
				KeptID:   kept[idx].ID,
				MergedID: p.ID,
				Reason:   reason,
				Sources:  sourceList(kept[idx].Source),
			})
			// The merged record may carry identifiers the kept one lacked.
			for _, k := range identifierKeys(kept[idx]) {
				seen[k] = idx
			}
			continue
		}

		idx := len(kept)
		kept = append(kept, p)
		for _, k := range identifierKeys(p) {
			seen[k] = idx
		}
		if tk := titleKey(p.Title); tk != "" {
			seen[tk] = idx
		}
	}

	return Output{Papers: kept, Matches: matches}
}

// findMatch returns the index of an existing record p duplicates, and the
// key that matched, or (-1, "").
func findMatch(seen map[string]int, kept []types.Paper, p types.Paper, threshold float64) (int, string) {
	for _, k := range identifierKeys(p) {
		if idx, ok := seen[k]; ok {
			return idx, k
		}
	}

	tk := titleKey(p.Title)
	if tk == "" {
		return -1, ""
	}
	idx, ok := seen[tk]
	if !ok {
		return -1, ""
	}

	// Title-only match: confirm with author overlap so distinct papers that
	// happen to share a title do not collapse.
	other := kept[idx]
	if len(p.Authors) == 0 || len(other.Authors) == 0 {
		return idx, tk
	}
	if authorOverlap(p.Authors, other.Authors) >= threshold {
		return idx, tk
	}
	return -1, ""
}

// identifierKeys returns the strong dedup keys for a record.
func identifierKeys(p types.Paper) []string {
	var keys []string
	if p.DOI != "" {
		keys = append(keys, "doi:"+strings.ToLower(p.DOI))
	}
	if p.ArxivID != "" {
		keys = append(keys, "arxiv:"+stripArxivVersion(p.ArxivID))
	}
	return keys
}

// stripArxivVersion removes a trailing version suffix ("2301.07041v2" →
// "2301.07041") so revisions of one preprint key together.
func stripArxivVersion(id string) string {
	if i := strings.LastIndexByte(id, 'v'); i > 0 {
		allDigits := i+1 < len(id)
		for _, r := range id[i+1:] {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return id[:i]
		}
	}
	return id
}

func titleKey(title string) string {
	n := NormalizeTitle(title)
	if n == "" {
		return ""
	}
	return "title:" + n
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with collapsed whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// authorOverlap computes overlap between two author lists as the size of
// the surname intersection over the smaller list. Surnames, not full names:
// sources disagree on initials and name order.
func authorOverlap(a, b []string) float64 {
	as := surnameSet(a)
	bs := surnameSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	small := len(as)
	if len(bs) < small {
		small = len(bs)
	}
	common := 0
	for s := range as {
		if bs[s] {
			common++
		}
	}
	return float64(common) / float64(small)
}

func surnameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		fields := strings.Fields(strings.ToLower(a))
		if len(fields) == 0 {
			continue
		}
		set[fields[len(fields)-1]] = true
	}
	return set
}

// mergeInto fills empty fields of dst from src and keeps the higher
// citation count. Provenance accumulates in Source.
func mergeInto(dst *types.Paper, src types.Paper) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.Date.IsZero() && !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.Venue == "" && src.Venue != "" {
		dst.Venue = src.Venue
	}
	if dst.DOI == "" && src.DOI != "" {
		dst.DOI = src.DOI
	}
	if dst.ArxivID == "" && src.ArxivID != "" {
		dst.ArxivID = src.ArxivID
	}
	if dst.OpenAccessURL == "" && src.OpenAccessURL != "" {
		dst.OpenAccessURL = src.OpenAccessURL
	}
	if src.Citations > dst.Citations {
		dst.Citations = src.Citations
	}
	for _, f := range src.Fields {
		if !containsFold(dst.Fields, f) {
			dst.Fields = append(dst.Fields, f)
		}
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// sourceList splits the comma-joined provenance accumulated by mergeInto.
func sourceList(source string) []string {
	var out []string
	for _, s := range strings.Split(source, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
