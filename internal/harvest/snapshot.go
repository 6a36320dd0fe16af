// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

const (
	papersDir   = "papers"
	manifestExt = ".manifest.yaml"
)

// Manifest records what a snapshot contains and how it was produced, so a
// later run can tell whether the snapshot is stale.
type Manifest struct {
	Query     ManifestQuery  `yaml:"query"`
	PerSource map[string]int `yaml:"per_source"`
	Errors    []string       `yaml:"errors,omitempty"`
	Total     int            `yaml:"total"`
	Timestamp time.Time      `yaml:"timestamp"`
}

// ManifestQuery stores the query parameters in a serializable form.
type ManifestQuery struct {
	Institution string `yaml:"institution,omitempty"`
	Venue       string `yaml:"venue,omitempty"`
	YearFrom    int    `yaml:"year_from,omitempty"`
	YearTo      int    `yaml:"year_to,omitempty"`
}

// WriteSnapshot writes the harvested papers as a JSON snapshot under
// corpusDir/papers/<name>.json plus a YAML manifest beside it (R3.4).
func WriteSnapshot(corpusDir, name string, query Query, out Output) (string, error) {
	dir := filepath.Join(corpusDir, papersDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating papers directory: %w", err)
	}

	path := filepath.Join(dir, name+".json")
	data, err := json.MarshalIndent(out.Papers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	m := Manifest{
		Query: ManifestQuery{
			Institution: query.Institution,
			Venue:       query.Venue,
			YearFrom:    query.YearFrom,
			YearTo:      query.YearTo,
		},
		PerSource: out.PerSource,
		Errors:    out.SourceErrors,
		Total:     len(out.Papers),
		Timestamp: time.Now().UTC(),
	}
	mdata, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+manifestExt), mdata, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// WritePapers rewrites a paper snapshot after a processing stage mutates
// its records (dedup, venue normalization, classification, download).
func WritePapers(path string, papers []types.Paper) error {
	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a paper snapshot written by WriteSnapshot or any other
// stage that emits []Paper JSON.
func ReadSnapshot(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var papers []types.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return papers, nil
}
