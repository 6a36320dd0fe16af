// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest collects publication metadata from bibliographic APIs and
// writes unified corpus snapshots.
// Implements: prd001-harvest (R1-R5);
//
//	docs/ARCHITECTURE.md § Harvest.
package harvest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Source harvests paper metadata from a single bibliographic API. Each
// source (Semantic Scholar, OpenAlex) paginates internally and maps its
// response into unified Paper records.
type Source interface {
	Name() string
	Harvest(ctx context.Context, query Query, cfg types.HarvestConfig) ([]types.Paper, error)
}

// Query holds the harvest parameters. Institution is the affiliation string
// matched against author affiliations; Venue restricts to a single venue
// when non-empty.
type Query struct {
	Institution string
	Venue       string
	YearFrom    int
	YearTo      int
}

// IsEmpty reports whether the query has no searchable terms.
func (q Query) IsEmpty() bool {
	return q.Institution == "" && q.Venue == ""
}

// Validate checks the year window against the config defaults and fills
// missing bounds.
func (q *Query) Validate(cfg types.HarvestConfig) error {
	if q.IsEmpty() {
		return fmt.Errorf("query is empty: provide an institution or venue")
	}
	if q.YearFrom == 0 {
		q.YearFrom = cfg.YearFrom
	}
	if q.YearTo == 0 {
		q.YearTo = cfg.YearTo
	}
	if q.YearFrom != 0 && q.YearTo != 0 && q.YearFrom > q.YearTo {
		return fmt.Errorf("year window inverted: %d > %d", q.YearFrom, q.YearTo)
	}
	return nil
}

// Output holds the combined harvest results and per-source statistics.
type Output struct {
	Papers       []types.Paper
	PerSource    map[string]int
	SourceErrors []string
}

// Run fans the query out to all sources concurrently and combines results.
// A failing source is recorded, not fatal: the remaining sources still
// contribute (R4.1, R4.2). Duplicate resolution across sources is the dedup
// stage's job, not Run's.
func Run(ctx context.Context, query Query, sources []Source, cfg types.HarvestConfig, w io.Writer) (Output, error) {
	if err := query.Validate(cfg); err != nil {
		return Output{}, err
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no harvest sources configured")
	}

	type sourceResult struct {
		papers []types.Paper
		err    error
		name   string
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, s := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			papers, err := s.Harvest(ctx, query, cfg)
			ch <- sourceResult{papers: papers, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	out := Output{PerSource: make(map[string]int)}
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.name, sr.err)
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		fmt.Fprintf(w, "%s: %d papers\n", sr.name, len(sr.papers))
		out.PerSource[sr.name] = len(sr.papers)
		out.Papers = append(out.Papers, sr.papers...)
	}

	if len(out.Papers) == 0 && len(out.SourceErrors) == len(sources) {
		return out, fmt.Errorf("all sources failed")
	}
	return out, nil
}

// inWindow reports whether year falls inside the query window. Sources use
// it to drop records the API returned outside the requested range.
func inWindow(year, from, to int) bool {
	if year == 0 {
		return false
	}
	if from != 0 && year < from {
		return false
	}
	if to != 0 && year > to {
		return false
	}
	return true
}
