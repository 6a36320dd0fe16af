// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders corpus analysis reports as tables or JSON.
// Implements: prd009-reporting (R1-R4);
//
//	docs/ARCHITECTURE.md § Reporting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/corpus-engine/internal/dedup"
	"github.com/pdiddy/corpus-engine/internal/domains"
	"github.com/pdiddy/corpus-engine/internal/venues"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Format selects a report output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", s)
	}
}

// Duplicates renders a merge report from a dedup run (R1.1, R1.2).
func Duplicates(out dedup.Output, format Format, w io.Writer) error {
	if format == FormatJSON {
		return writeJSON(out.Matches, w)
	}

	if len(out.Matches) == 0 {
		fmt.Fprintln(w, "No duplicates found.")
		return nil
	}

	fmt.Fprintf(w, "%-30s  %-30s  %-10s  %s\n", "Kept", "Merged", "Reason", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, m := range out.Matches {
		fmt.Fprintf(w, "%-30s  %-30s  %-10s  %s\n",
			truncate(m.KeptID, 30), truncate(m.MergedID, 30), m.Reason,
			strings.Join(m.Sources, ","))
	}
	fmt.Fprintf(w, "\n%d papers merged, %d remain\n", out.Removed(), len(out.Papers))
	return nil
}

// classificationRow is one bucket line in the classification report.
type classificationRow struct {
	Domain  string  `json:"domain"`
	Papers  int     `json:"papers"`
	Percent float64 `json:"percent"`
}

// classificationReport is the JSON shape of the sanity check.
type classificationReport struct {
	Total        int                  `json:"total"`
	Classified   int                  `json:"classified"`
	Unclassified int                  `json:"unclassified"`
	Buckets      []classificationRow  `json:"buckets"`
	Unmapped     []domains.LabelCount `json:"unmapped_labels,omitempty"`
}

// Classification renders a sanity check of a domain classification run:
// per-bucket shares, the unclassified residue, and raw labels the taxonomy
// does not cover (R2.1-R2.3).
func Classification(out domains.ClassifyOutput, format Format, w io.Writer) error {
	total := len(out.Records) + out.Unclassified
	rep := classificationReport{
		Total:        total,
		Classified:   len(out.Records),
		Unclassified: out.Unclassified,
		Unmapped:     out.UnmappedLabels(),
	}
	for _, bucket := range sortedBuckets(out.ByBucket) {
		rep.Buckets = append(rep.Buckets, classificationRow{
			Domain:  bucket,
			Papers:  out.ByBucket[bucket],
			Percent: percent(out.ByBucket[bucket], total),
		})
	}

	if format == FormatJSON {
		return writeJSON(rep, w)
	}

	fmt.Fprintf(w, "%-40s  %7s  %7s\n", "Domain", "Papers", "Share")
	fmt.Fprintln(w, strings.Repeat("-", 58))
	for _, row := range rep.Buckets {
		fmt.Fprintf(w, "%-40s  %7d  %6.1f%%\n", truncate(row.Domain, 40), row.Papers, row.Percent)
	}
	fmt.Fprintf(w, "\n%d of %d papers classified (%d unclassified)\n",
		rep.Classified, rep.Total, rep.Unclassified)

	if len(rep.Unmapped) > 0 {
		fmt.Fprintf(w, "\nLabels outside taxonomy:\n")
		for _, lc := range rep.Unmapped {
			fmt.Fprintf(w, "  %-40s  %d\n", truncate(lc.Label, 40), lc.Count)
		}
	}
	return nil
}

// venueRow is one venue line with its per-year counts.
type venueRow struct {
	Venue  string      `json:"venue"`
	Papers int         `json:"papers"`
	ByYear map[int]int `json:"by_year,omitempty"`
}

// Venues renders publication counts for the top venues (R3.1, R3.2).
func Venues(stats types.VenueStats, top int, format Format, w io.Writer) error {
	counts := venues.TopVenues(stats, top)
	rows := make([]venueRow, len(counts))
	for i, vc := range counts {
		rows[i] = venueRow{Venue: vc.Venue, Papers: vc.Count, ByYear: stats.ByYear[vc.Venue]}
	}

	if format == FormatJSON {
		return writeJSON(rows, w)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No venues recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %7s\n", "Venue", "Papers")
	fmt.Fprintln(w, strings.Repeat("-", 49))
	for _, row := range rows {
		fmt.Fprintf(w, "%-40s  %7d\n", truncate(row.Venue, 40), row.Papers)
	}
	fmt.Fprintf(w, "\n%d venues shown\n", len(rows))
	return nil
}

// Corrections renders the per-domain, per-year correction factor grid
// (R4.1, R4.2).
func Corrections(factors []domains.CorrectionFactor, format Format, w io.Writer) error {
	if format == FormatJSON {
		return writeJSON(factors, w)
	}

	if len(factors) == 0 {
		fmt.Fprintln(w, "No correction factors computed.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %4s  %7s  %10s  %7s\n", "Domain", "Year", "Corpus", "Classified", "Factor")
	fmt.Fprintln(w, strings.Repeat("-", 77))
	for _, f := range factors {
		factor := fmt.Sprintf("%.2f", f.Factor)
		if f.Classified == 0 {
			factor = "-"
		}
		fmt.Fprintf(w, "%-40s  %4d  %7d  %10d  %7s\n",
			truncate(f.Domain, 40), f.Year, f.Corpus, f.Classified, factor)
	}
	return nil
}

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedBuckets(byBucket map[string]int) []string {
	buckets := make([]string, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if byBucket[buckets[i]] != byBucket[buckets[j]] {
			return byBucket[buckets[i]] > byBucket[buckets[j]]
		}
		return buckets[i] < buckets[j]
	})
	return buckets
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
