// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func TestRun_MergesByDOI(t *testing.T) {
	papers := []types.Paper{
		{ID: "a", Title: "Paper A", DOI: "10.1000/X", Source: "semantic_scholar", Citations: 10},
		{ID: "b", Title: "Paper A (extended)", DOI: "10.1000/x", Source: "openalex", Citations: 25, Abstract: "Full abstract."},
	}

	out := Run(papers, types.DedupConfig{})
	if len(out.Papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(out.Papers))
	}

	p := out.Papers[0]
	if p.Citations != 25 {
		t.Errorf("Citations = %d, want higher count kept", p.Citations)
	}
	if p.Abstract != "Full abstract." {
		t.Errorf("Abstract not filled from merged record")
	}
	if p.Source != "semantic_scholar,openalex" {
		t.Errorf("Source = %q, want accumulated provenance", p.Source)
	}
	if len(out.Matches) != 1 || out.Matches[0].Reason != "identifier" {
		t.Errorf("Matches = %+v", out.Matches)
	}
	if got := out.Matches[0].Sources; len(got) != 2 || got[0] != "semantic_scholar" || got[1] != "openalex" {
		t.Errorf("Sources = %v, want both provenances listed", got)
	}
}

func TestRun_MergesArxivVersions(t *testing.T) {
	papers := []types.Paper{
		{ID: "a", Title: "Preprint", ArxivID: "2301.07041", Source: "semantic_scholar"},
		{ID: "b", Title: "Preprint", ArxivID: "2301.07041v2", Source: "openalex"},
	}

	out := Run(papers, types.DedupConfig{})
	if len(out.Papers) != 1 {
		t.Errorf("got %d papers, want 1 (version suffix should not split)", len(out.Papers))
	}
}

func TestRun_TitleMatchNeedsAuthorOverlap(t *testing.T) {
	tests := []struct {
		name    string
		authors [2][]string
		want    int // papers remaining
	}{
		{
			name:    "same authors merge",
			authors: [2][]string{{"Jane Doe", "Wei Chen"}, {"J. Doe", "W. Chen"}},
			want:    1,
		},
		{
			name:    "disjoint authors stay separate",
			authors: [2][]string{{"Jane Doe", "Wei Chen"}, {"Alice Smith", "Bob Jones"}},
			want:    2,
		},
		{
			name:    "missing authors merge",
			authors: [2][]string{{"Jane Doe"}, nil},
			want:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			papers := []types.Paper{
				{ID: "a", Title: "A Study: of Things!", Authors: tt.authors[0], Source: "semantic_scholar"},
				{ID: "b", Title: "a study of things", Authors: tt.authors[1], Source: "openalex"},
			}
			out := Run(papers, types.DedupConfig{})
			if len(out.Papers) != tt.want {
				t.Errorf("got %d papers, want %d", len(out.Papers), tt.want)
			}
		})
	}
}

func TestRun_ConfiguredThreshold(t *testing.T) {
	papers := []types.Paper{
		{ID: "a", Title: "Shared Title", Authors: []string{"Jane Doe", "Ada Chen"}, Source: "s1"},
		{ID: "b", Title: "Shared Title", Authors: []string{"Jane Doe", "Ben Osei"}, Source: "s2"},
	}

	// Half the surnames overlap: merges at the default threshold, stays
	// apart when the config demands more.
	if out := Run(papers, types.DedupConfig{}); len(out.Papers) != 1 {
		t.Errorf("default threshold: got %d papers, want 1", len(out.Papers))
	}
	if out := Run(papers, types.DedupConfig{AuthorOverlapThreshold: 0.9}); len(out.Papers) != 2 {
		t.Errorf("strict threshold: got %d papers, want 2", len(out.Papers))
	}
}

func TestRun_LateIdentifierStillKeys(t *testing.T) {
	// Record b merges into a by title and carries a DOI; record c shares
	// only that DOI and must still find a.
	papers := []types.Paper{
		{ID: "a", Title: "Same Title", Authors: []string{"Jane Doe"}, Source: "s1"},
		{ID: "b", Title: "Same Title", Authors: []string{"J Doe"}, DOI: "10.1/z", Source: "s2"},
		{ID: "c", Title: "Different Title Entirely", DOI: "10.1/z", Source: "s3"},
	}

	out := Run(papers, types.DedupConfig{})
	if len(out.Papers) != 1 {
		t.Errorf("got %d papers, want 1", len(out.Papers))
	}
	if out.Removed() != 2 {
		t.Errorf("Removed() = %d, want 2", out.Removed())
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A Study: of Things!", "a study of things"},
		{"  Spaced   out  ", "spaced out"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripArxivVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2301.07041v2", "2301.07041"},
		{"2301.07041", "2301.07041"},
		{"2301.07041vx", "2301.07041vx"},
	}
	for _, tt := range tests {
		if got := stripArxivVersion(tt.in); got != tt.want {
			t.Errorf("stripArxivVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAuthorOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"Jane Doe"}, []string{"J. Doe"}, 1.0},
		{"disjoint", []string{"Jane Doe"}, []string{"Bob Jones"}, 0.0},
		{"half", []string{"Jane Doe", "Wei Chen"}, []string{"W. Chen", "Alice Smith"}, 0.5},
		{"empty", nil, []string{"X"}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authorOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("authorOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}
