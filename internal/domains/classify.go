// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package domains

import (
	"sort"
	"strings"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// generalBucket absorbs broad labels; a specific bucket always wins over it.
const generalBucket = "General ML"

// ClassifyOutput holds classification results and the sanity-check data.
type ClassifyOutput struct {
	Records []types.DomainRecord

	// Unmapped counts field labels no taxonomy entry covered.
	Unmapped map[string]int

	// ByBucket counts assigned papers per bucket.
	ByBucket map[string]int

	// Unclassified is the number of papers no label or keyword matched.
	Unclassified int
}

// Classify assigns each paper to one taxonomy bucket (R2.1-R2.4). Field
// labels are tried first, most specific bucket wins; when none match and
// keywordFallback is set, title+abstract keywords decide. Papers stay
// unclassified rather than guessing.
func Classify(papers []types.Paper, tax *Taxonomy, keywordFallback bool) ClassifyOutput {
	out := ClassifyOutput{
		Unmapped: make(map[string]int),
		ByBucket: make(map[string]int),
	}

	for i := range papers {
		p := &papers[i]
		bucket, rawLabel := classifyByLabels(p.Fields, tax, out.Unmapped)
		if bucket == "" && keywordFallback {
			bucket, rawLabel = classifyByKeywords(p, tax)
		}
		if bucket == "" {
			out.Unclassified++
			continue
		}

		p.Domain = bucket
		out.ByBucket[bucket]++
		out.Records = append(out.Records, types.DomainRecord{
			PaperID:    p.ID,
			DomainName: bucket,
			Year:       p.Year,
			RawLabel:   rawLabel,
		})
	}
	return out
}

// classifyByLabels picks the bucket with the most label votes; the general
// bucket only wins when nothing specific matched.
func classifyByLabels(fields []string, tax *Taxonomy, unmapped map[string]int) (string, string) {
	votes := make(map[string]int)
	firstLabel := make(map[string]string)

	for _, f := range fields {
		bucket, ok := tax.LookupLabel(f)
		if !ok {
			unmapped[strings.ToLower(strings.TrimSpace(f))]++
			continue
		}
		votes[bucket]++
		if _, seen := firstLabel[bucket]; !seen {
			firstLabel[bucket] = f
		}
	}
	if len(votes) == 0 {
		return "", ""
	}

	buckets := make([]string, 0, len(votes))
	for b := range votes {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		bi, bj := buckets[i], buckets[j]
		// Specific buckets outrank the general one regardless of votes.
		if (bi == generalBucket) != (bj == generalBucket) {
			return bj == generalBucket
		}
		if votes[bi] != votes[bj] {
			return votes[bi] > votes[bj]
		}
		return bi < bj
	})
	best := buckets[0]
	return best, firstLabel[best]
}

// classifyByKeywords scans title and abstract for fallback keywords and
// picks the bucket with the most hits.
func classifyByKeywords(p *types.Paper, tax *Taxonomy) (string, string) {
	text := strings.ToLower(p.Title + " " + p.Abstract)
	votes := make(map[string]int)
	firstTerm := make(map[string]string)

	for kw, bucket := range tax.keywords {
		if strings.Contains(text, kw) {
			votes[bucket]++
			if cur, seen := firstTerm[bucket]; !seen || kw < cur {
				firstTerm[bucket] = kw
			}
		}
	}
	if len(votes) == 0 {
		return "", ""
	}

	best := ""
	for b, v := range votes {
		if best == "" || v > votes[best] || (v == votes[best] && b < best) {
			best = b
		}
	}
	return best, "keyword:" + firstTerm[best]
}

// UnmappedLabels returns unmapped labels ordered by descending frequency
// for the sanity-check report (R3.1).
func (o ClassifyOutput) UnmappedLabels() []LabelCount {
	out := make([]LabelCount, 0, len(o.Unmapped))
	for l, c := range o.Unmapped {
		out = append(out, LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// LabelCount pairs a raw label with its occurrence count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
