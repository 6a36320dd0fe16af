// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExportJSON writes the full corpus to corpusDir/index/export.json.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	papers, err := s.All(ctx)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.corpusDir, indexDir, "export.json")
	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
