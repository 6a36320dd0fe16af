// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package domains

import (
	"sort"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// CorrectionFactor scales a per-domain-year sample count up to the
// full corpus: factor = corpus papers that year / classified papers in the
// domain that year. A factor of 0 marks an undefined ratio (nothing
// classified for that cell).
type CorrectionFactor struct {
	Domain     string  `json:"domain"`
	Year       int     `json:"year"`
	Corpus     int     `json:"corpus"`
	Classified int     `json:"classified"`
	Factor     float64 `json:"factor"`
}

// CorrectionFactors computes per-domain-year factors from the full corpus
// and the classification records (R4.1-R4.3). Factors clamp to >= 1.0: a
// domain can never cover more than the corpus it came from, and counting
// noise above 1.0 would shrink estimates.
func CorrectionFactors(papers []types.Paper, records []types.DomainRecord) []CorrectionFactor {
	corpusByYear := make(map[int]int)
	for i := range papers {
		if papers[i].Year != 0 {
			corpusByYear[papers[i].Year]++
		}
	}

	type cell struct {
		domain string
		year   int
	}
	classified := make(map[cell]int)
	domainSet := make(map[string]bool)
	for _, r := range records {
		if r.Year == 0 {
			continue
		}
		classified[cell{r.DomainName, r.Year}]++
		domainSet[r.DomainName] = true
	}

	domains := make([]string, 0, len(domainSet))
	for d := range domainSet {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	years := make([]int, 0, len(corpusByYear))
	for y := range corpusByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var out []CorrectionFactor
	for _, d := range domains {
		for _, y := range years {
			n := classified[cell{d, y}]
			cf := CorrectionFactor{
				Domain:     d,
				Year:       y,
				Corpus:     corpusByYear[y],
				Classified: n,
			}
			if n > 0 {
				cf.Factor = float64(cf.Corpus) / float64(n)
				if cf.Factor < 1.0 {
					cf.Factor = 1.0
				}
			}
			out = append(out, cf)
		}
	}
	return out
}
