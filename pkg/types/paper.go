// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the corpus-engine pipeline.
// Implements: prd001-harvest (Paper, R3.1-R3.4);
//
//	prd002-dedup (provenance fields);
//	prd005-discovery (PDFRecord);
//	prd004-domains (DomainRecord).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// Paper is the unified metadata record for one publication in the corpus.
// Every harvest backend maps its response into this shape; downstream stages
// (dedup, classification, venue statistics, discovery) consume nothing else.
type Paper struct {
	// ID is a slug derived from the strongest identifier available
	// (arXiv ID, then DOI, then source-native ID).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Date is the publication or preprint date when the source provides one.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// Venue is the publication venue as reported by the source. The venues
	// stage canonicalizes variants; NormVenue holds the result.
	Venue string `json:"venue" yaml:"venue"`

	// NormVenue is the canonical venue name after merging variants
	// (e.g. "NeurIPS.cc/2024/Conference" becomes "NeurIPS").
	NormVenue string `json:"norm_venue,omitempty" yaml:"norm_venue,omitempty"`

	// Citations is the citation count at harvest time.
	Citations int `json:"citations" yaml:"citations"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Source accumulates the backends that contributed to this record,
	// comma-separated when a duplicate merge joins records
	// (e.g. "semantic_scholar,openalex").
	Source string `json:"source" yaml:"source"`

	// DOI is the bare DOI without the https://doi.org/ prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the arXiv identifier (e.g. "2301.07041") when known.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// OpenAccessURL is a direct PDF or landing URL reported by the source.
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`

	// Fields lists the free-text research-field labels from the source
	// (e.g. Semantic Scholar fieldsOfStudy, OpenAlex concepts). The domains
	// stage maps these onto taxonomy buckets.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Domain is the taxonomy bucket assigned by classification, empty until
	// the classify stage runs.
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// PDFPath is the local filesystem path once the PDF has been downloaded.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
}

// HasIdentifier reports whether the record carries at least one strong
// identifier usable for duplicate keying.
func (p *Paper) HasIdentifier() bool {
	return p.DOI != "" || p.ArxivID != ""
}

// EffectiveVenue returns the canonical venue when set, otherwise the raw one.
func (p *Paper) EffectiveVenue() string {
	if p.NormVenue != "" {
		return p.NormVenue
	}
	return p.Venue
}

// PDFRecord is the outcome of PDF discovery for one paper.
type PDFRecord struct {
	// PaperID matches the Paper record the PDF belongs to.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// URL is the resolved PDF download URL.
	URL string `json:"url" yaml:"url"`

	// Source identifies which locator found the URL
	// (e.g. "openalex", "hal", "core", "jmlr", "nature", "arxiv").
	Source string `json:"source" yaml:"source"`

	// Confidence is a value between 0.0 and 1.0: how certain the locator is
	// that the URL serves the full published PDF.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// DomainRecord assigns one paper to one taxonomy bucket for one year.
// This is the classification interchange record written alongside the corpus.
type DomainRecord struct {
	PaperID    string `json:"paper_id" yaml:"paper_id"`
	DomainName string `json:"domain_name" yaml:"domain_name"`
	Year       int    `json:"year" yaml:"year"`

	// RawLabel is the free-text field label that matched the taxonomy, or
	// "keyword:<term>" when the keyword fallback assigned the bucket.
	RawLabel string `json:"raw_label,omitempty" yaml:"raw_label,omitempty"`
}

// VenueStats aggregates corpus counts by venue, year, and domain.
type VenueStats struct {
	// VenueCounts maps canonical venue name to total paper count.
	VenueCounts map[string]int `json:"venue_counts" yaml:"venue_counts"`

	// ByYear maps canonical venue name to per-year counts.
	ByYear map[string]map[int]int `json:"by_year" yaml:"by_year"`

	// VenueByDomain maps taxonomy bucket to per-venue counts.
	VenueByDomain map[string]map[string]int `json:"venue_by_domain" yaml:"venue_by_domain"`
}
