// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes a stored run to dir/[run-id].yaml for downstream
// consumers (visualization, summarization).
func (s *Store) ExportYAML(ctx context.Context, id string) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, id+".yaml")
	data, err := yaml.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes a stored run to dir/[run-id].json.
func (s *Store) ExportJSON(ctx context.Context, id string) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, id+".json")
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}
