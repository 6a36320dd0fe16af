// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Indicators summarizes evidence of result suppression in a paper's text:
// few random seeds, missing ablations, and stated compute constraints all
// correlate with experiments that were cut for resources rather than
// science.
type Indicators struct {
	PaperID string `json:"paper_id,omitempty"`

	// SeedCount is the number of random seeds the paper reports, 0 when
	// none is stated.
	SeedCount int `json:"seed_count"`

	// AblationMentions counts ablation discussion in the body.
	AblationMentions int `json:"ablation_mentions"`

	// ConstraintHits are matched resource-constraint statements.
	ConstraintHits []string `json:"constraint_hits,omitempty"`

	// Score is the 0-1 suppression score; higher means more suppressed.
	Score float64 `json:"score"`
}

var (
	seedPattern     = regexp.MustCompile(`(?i)\b(\d{1,3})\s+(?:random\s+)?seeds\b`)
	seedOnePattern  = regexp.MustCompile(`(?i)\b(?:a\s+single|one)\s+(?:random\s+)?seed\b`)
	ablationPattern = regexp.MustCompile(`(?i)\bablation(?:s|\s+stud(?:y|ies))?\b`)

	constraintPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)due\s+to\s+(?:computational|compute|resource|budget|time|memory|GPU)\s+(?:constraints?|limitations?|costs?|budgets?)`),
		regexp.MustCompile(`(?i)(?:limited|insufficient|restricted)\s+(?:computational\s+resources?|compute|GPU\s+(?:resources?|memory)|hardware)`),
		regexp.MustCompile(`(?i)(?:could|was|were)\s+not\s+(?:able\s+to\s+)?(?:afford|run|train|evaluate)\b`),
		regexp.MustCompile(`(?i)leave\s+(?:\w+\s+){0,4}(?:for|to)\s+future\s+work\s+due\s+to`),
		regexp.MustCompile(`(?i)prohibitively\s+(?:expensive|costly)`),
	}
)

// Scan scores the given paper text for suppression indicators.
func Scan(text string) Indicators {
	ind := Indicators{}

	if m := seedPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ind.SeedCount = n
		}
	} else if seedOnePattern.MatchString(text) {
		ind.SeedCount = 1
	}

	ind.AblationMentions = len(ablationPattern.FindAllString(text, -1))

	seen := map[string]bool{}
	for _, p := range constraintPatterns {
		for _, hit := range p.FindAllString(text, -1) {
			hit = strings.Join(strings.Fields(hit), " ")
			if !seen[hit] {
				seen[hit] = true
				ind.ConstraintHits = append(ind.ConstraintHits, hit)
			}
		}
	}

	ind.Score = score(ind)
	return ind
}

// score combines the three signals. Seeds contribute up to 0.4 (fewer is
// worse), ablations up to 0.2 (absence is worse), and explicit constraint
// statements up to 0.4.
func score(ind Indicators) float64 {
	var s float64

	switch {
	case ind.SeedCount == 0:
		// Unstated seed count is weak evidence on its own.
		s += 0.2
	case ind.SeedCount == 1:
		s += 0.4
	case ind.SeedCount == 2:
		s += 0.3
	case ind.SeedCount < 5:
		s += 0.1
	}

	if ind.AblationMentions == 0 {
		s += 0.2
	}

	constraint := 0.2 * float64(len(ind.ConstraintHits))
	if constraint > 0.4 {
		constraint = 0.4
	}
	s += constraint

	if s > 1 {
		s = 1
	}
	return s
}
