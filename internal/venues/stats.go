// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package venues

import (
	"sort"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Aggregate computes venue statistics over a normalized corpus (R2.1-R2.3).
// Papers without a venue are counted under "unknown".
func Aggregate(papers []types.Paper) types.VenueStats {
	stats := types.VenueStats{
		VenueCounts:   make(map[string]int),
		ByYear:        make(map[string]map[int]int),
		VenueByDomain: make(map[string]map[string]int),
	}

	for i := range papers {
		p := &papers[i]
		venue := p.EffectiveVenue()
		if venue == "" {
			venue = "unknown"
		}

		stats.VenueCounts[venue]++

		if p.Year != 0 {
			if stats.ByYear[venue] == nil {
				stats.ByYear[venue] = make(map[int]int)
			}
			stats.ByYear[venue][p.Year]++
		}

		if p.Domain != "" {
			if stats.VenueByDomain[p.Domain] == nil {
				stats.VenueByDomain[p.Domain] = make(map[string]int)
			}
			stats.VenueByDomain[p.Domain][venue]++
		}
	}

	return stats
}

// VenueCount pairs a venue with its paper count for sorted output.
type VenueCount struct {
	Venue string `json:"venue"`
	Count int    `json:"count"`
}

// TopVenues returns venues ordered by descending count, ties broken by
// name, truncated to n (0 means all).
func TopVenues(stats types.VenueStats, n int) []VenueCount {
	out := make([]VenueCount, 0, len(stats.VenueCounts))
	for v, c := range stats.VenueCounts {
		out = append(out, VenueCount{Venue: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Venue < out[j].Venue
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
