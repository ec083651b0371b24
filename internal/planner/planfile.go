// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/aero-research/pkg/types"
)

// PlanFile is the on-disk representation of a research query and the plan
// built from it. The researcher can save a plan to a file, inspect or edit
// the query, and re-execute later without re-planning.
type PlanFile struct {
	Query     types.ResearchQuery `yaml:"query"`
	Plan      types.SearchPlan    `yaml:"plan"`
	CreatedAt time.Time           `yaml:"created_at"`
}

// WritePlanFile saves the query and its plan to a YAML file.
func WritePlanFile(path string, query types.ResearchQuery, plan types.SearchPlan) error {
	pf := PlanFile{
		Query:     query,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}
	data, err := yaml.Marshal(&pf)
	if err != nil {
		return fmt.Errorf("marshaling plan file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadPlanFile loads a previously saved plan file from disk.
func ReadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	return &pf, nil
}
