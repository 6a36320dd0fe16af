// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package venues canonicalizes venue name variants and aggregates corpus
// counts by venue, year, and domain.
// Implements: prd003-venues (R1-R3);
//
//	docs/ARCHITECTURE.md § Venues.
package venues

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Normalizer maps raw venue strings onto canonical names.
type Normalizer struct {
	// exact maps lowercased raw names to canonical names.
	exact map[string]string
}

// builtinMerges are the variants seen across Semantic Scholar, OpenAlex,
// and OpenReview exports. A YAML merge map extends or overrides them.
var builtinMerges = map[string]string{
	"neural information processing systems":                         "NeurIPS",
	"advances in neural information processing systems":             "NeurIPS",
	"nips":                                                          "NeurIPS",
	"neurips":                                                       "NeurIPS",
	"international conference on machine learning":                  "ICML",
	"icml":                                                          "ICML",
	"international conference on learning representations":          "ICLR",
	"iclr":                                                          "ICLR",
	"computer vision and pattern recognition":                       "CVPR",
	"ieee/cvf conference on computer vision and pattern recognition": "CVPR",
	"cvpr":                                                          "CVPR",
	"international conference on computer vision":                   "ICCV",
	"iccv":                                                          "ICCV",
	"european conference on computer vision":                        "ECCV",
	"eccv":                                                          "ECCV",
	"annual meeting of the association for computational linguistics": "ACL",
	"acl":                                                           "ACL",
	"conference on empirical methods in natural language processing": "EMNLP",
	"emnlp":                                                         "EMNLP",
	"north american chapter of the association for computational linguistics": "NAACL",
	"naacl":                                                         "NAACL",
	"aaai conference on artificial intelligence":                    "AAAI",
	"aaai":                                                          "AAAI",
	"international joint conference on artificial intelligence":     "IJCAI",
	"ijcai":                                                         "IJCAI",
	"journal of machine learning research":                          "JMLR",
	"jmlr":                                                          "JMLR",
	"transactions on machine learning research":                     "TMLR",
	"tmlr":                                                          "TMLR",
	"international conference on artificial intelligence and statistics": "AISTATS",
	"aistats":                                                       "AISTATS",
	"conference on robot learning":                                  "CoRL",
	"corl":                                                          "CoRL",
	"uncertainty in artificial intelligence":                        "UAI",
	"uai":                                                           "UAI",
	"arxiv.org":                                                     "arXiv",
	"arxiv":                                                         "arXiv",
	"nature":                                                        "Nature",
	"nature communications":                                         "Nature Communications",
	"nature machine intelligence":                                   "Nature Machine Intelligence",
}

// openReviewPattern matches OpenReview-style venue IDs like
// "NeurIPS.cc/2024/Conference" or "ICLR.cc/2023/Workshop/RTML".
var openReviewPattern = regexp.MustCompile(`^([A-Za-z]+)\.cc/(\d{4})(?:/.*)?$`)

// yearSuffixPattern matches trailing years and ordinals:
// "ICML 2023", "CVPR '21", "38th AAAI".
var (
	yearSuffixPattern    = regexp.MustCompile(`\s+'?(\d{2}|\d{4})$`)
	ordinalPrefixPattern = regexp.MustCompile(`^\d+(st|nd|rd|th)\s+`)
	procPrefixPattern    = regexp.MustCompile(`(?i)^proc(eedings|\.)?\s+(of\s+)?(the\s+)?`)
)

// NewNormalizer builds a Normalizer from the built-in table plus the
// optional YAML merge map at cfg.MergeMapPath. File entries override
// built-ins (R1.2).
func NewNormalizer(cfg types.VenueConfig) (*Normalizer, error) {
	exact := make(map[string]string, len(builtinMerges))
	for k, v := range builtinMerges {
		exact[k] = v
	}

	if cfg.MergeMapPath != "" {
		data, err := os.ReadFile(cfg.MergeMapPath)
		if err != nil {
			return nil, fmt.Errorf("reading merge map %s: %w", cfg.MergeMapPath, err)
		}
		var extra map[string]string
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("parsing merge map %s: %w", cfg.MergeMapPath, err)
		}
		for k, v := range extra {
			exact[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}

	return &Normalizer{exact: exact}, nil
}

// Normalize returns the canonical venue name for a raw variant. Unknown
// venues come back cleaned (prefix/suffix noise stripped) but otherwise
// unchanged, never empty unless the input is empty (R1.3).
func (n *Normalizer) Normalize(raw string) string {
	venue := strings.TrimSpace(raw)
	if venue == "" {
		return ""
	}

	// OpenReview IDs carry the canonical short name in the first segment.
	if m := openReviewPattern.FindStringSubmatch(venue); m != nil {
		venue = m[1]
	}

	cleaned := cleanVenue(venue)
	if canonical, ok := n.exact[strings.ToLower(cleaned)]; ok {
		return canonical
	}
	if canonical, ok := n.exact[strings.ToLower(venue)]; ok {
		return canonical
	}
	return cleaned
}

// Apply normalizes every paper in place and returns the count of records
// whose venue changed.
func (n *Normalizer) Apply(papers []types.Paper) int {
	changed := 0
	for i := range papers {
		norm := n.Normalize(papers[i].Venue)
		papers[i].NormVenue = norm
		if norm != papers[i].Venue {
			changed++
		}
	}
	return changed
}

// cleanVenue strips proceedings prefixes, ordinals, and trailing years.
func cleanVenue(venue string) string {
	v := procPrefixPattern.ReplaceAllString(venue, "")
	v = ordinalPrefixPattern.ReplaceAllString(v, "")
	v = yearSuffixPattern.ReplaceAllString(v, "")
	return strings.TrimSpace(v)
}
