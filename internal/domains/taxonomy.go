// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package domains maps free-text research-field labels onto a fixed set of
// category buckets and computes correction factors for sampled analyses.
// Implements: prd004-domains (R1-R4);
//
//	docs/ARCHITECTURE.md § Domains.
package domains

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Taxonomy maps raw field labels and fallback keywords to domain buckets.
type Taxonomy struct {
	// labels maps lowercased free-text labels to bucket names.
	labels map[string]string

	// keywords maps lowercased title/abstract keywords to bucket names,
	// used only when no label matches.
	keywords map[string]string
}

// taxonomyFile is the YAML shape of a taxonomy file.
type taxonomyFile struct {
	// Domains maps bucket name to the raw labels it covers.
	Domains map[string][]string `yaml:"domains"`

	// Keywords maps bucket name to fallback title/abstract keywords.
	Keywords map[string][]string `yaml:"keywords"`
}

// builtinTaxonomy covers the labels Semantic Scholar and OpenAlex actually
// emit for the corpus window. A YAML file replaces it wholesale rather than
// merging; partial taxonomies produce confusing sanity reports.
var builtinTaxonomy = taxonomyFile{
	Domains: map[string][]string{
		"Computer Vision": {
			"computer vision", "image processing", "object detection",
			"image segmentation", "pattern recognition", "computer graphics",
		},
		"NLP": {
			"natural language processing", "computational linguistics",
			"machine translation", "language model", "speech recognition",
			"information retrieval",
		},
		"RL": {
			"reinforcement learning", "markov decision process", "robotics",
			"control theory", "multi-agent systems",
		},
		"Graph Learning": {
			"graph neural network", "graph theory", "network science",
			"knowledge graph",
		},
		"Theory": {
			"optimization", "statistics", "learning theory", "mathematics",
			"algorithm", "convex optimization",
		},
		"ML Systems": {
			"distributed computing", "parallel computing", "hardware",
			"compiler", "operating system",
		},
		"AI for Science": {
			"computational biology", "bioinformatics", "chemistry", "physics",
			"drug discovery", "climate",
		},
		"General ML": {
			"machine learning", "deep learning", "artificial intelligence",
			"neural network", "artificial neural network", "computer science",
		},
	},
	Keywords: map[string][]string{
		"Computer Vision": {"image", "video", "visual", "segmentation", "detection"},
		"NLP":             {"language", "text", "translation", "dialogue", "speech"},
		"RL":              {"reinforcement", "policy", "reward", "agent", "robot"},
		"Graph Learning":  {"graph", "node", "molecule"},
		"Theory":          {"bound", "convergence", "regret", "sample complexity"},
	},
}

// LoadTaxonomy builds a Taxonomy from cfg.TaxonomyPath, or the built-in
// taxonomy when the path is empty (R1.1).
func LoadTaxonomy(cfg types.DomainsConfig) (*Taxonomy, error) {
	tf := builtinTaxonomy
	if cfg.TaxonomyPath != "" {
		data, err := os.ReadFile(cfg.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("reading taxonomy %s: %w", cfg.TaxonomyPath, err)
		}
		tf = taxonomyFile{}
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing taxonomy %s: %w", cfg.TaxonomyPath, err)
		}
		if len(tf.Domains) == 0 {
			return nil, fmt.Errorf("taxonomy %s defines no domains", cfg.TaxonomyPath)
		}
	}

	tax := &Taxonomy{
		labels:   make(map[string]string),
		keywords: make(map[string]string),
	}
	for bucket, labels := range tf.Domains {
		for _, l := range labels {
			tax.labels[strings.ToLower(strings.TrimSpace(l))] = bucket
		}
	}
	for bucket, kws := range tf.Keywords {
		for _, k := range kws {
			tax.keywords[strings.ToLower(strings.TrimSpace(k))] = bucket
		}
	}
	return tax, nil
}

// Buckets returns the sorted set of bucket names the taxonomy can assign.
func (t *Taxonomy) Buckets() []string {
	set := make(map[string]bool)
	for _, b := range t.labels {
		set[b] = true
	}
	for _, b := range t.keywords {
		set[b] = true
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// LookupLabel maps one free-text label to its bucket. The second return
// reports whether the label is known.
func (t *Taxonomy) LookupLabel(label string) (string, bool) {
	b, ok := t.labels[strings.ToLower(strings.TrimSpace(label))]
	return b, ok
}
