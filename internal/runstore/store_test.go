// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/aero-research/internal/pipeline"
	"github.com/pdiddy/aero-research/pkg/types"
)

func sampleRun(id string) pipeline.RunResult {
	docA := types.Document{
		ID:              "aaaa000011112222",
		Title:           "Gridded Ion Thruster",
		Abstract:        "An ion thruster producing 250 mN of thrust.",
		Identifiers:     []string{"US1"},
		Assignees:       []string{"NASA"},
		Classifications: []string{"F03H"},
		Sources:         []string{"patents"},
		Specs:           map[string]string{"thrust": "250 mN"},
		PublicationDate: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	docB := types.Document{
		ID:              "bbbb000011112222",
		Title:           "Hall Thruster Cathode",
		Identifiers:     []string{"US2"},
		Classifications: []string{"F03H"},
		Sources:         []string{"patents", "papers"},
		CitationRefs:    []string{"US1"},
		PublicationDate: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	return pipeline.RunResult{
		ID:    id,
		Query: types.ResearchQuery{Text: "ion thrusters", WantCitations: true},
		Plan:  types.SearchPlan{Terms: []string{"ion thruster"}, Codes: []string{"F03H"}},
		ProviderStatus: map[string]types.ProviderStatus{
			"patents": types.StatusSuccess,
			"papers":  types.StatusDegraded,
		},
		Reasons:   map[string]string{"papers": "timed out"},
		Documents: []types.Document{docA, docB},
		Graph: types.CitationGraph{
			Nodes: map[string]types.Document{docA.ID: docA, docB.ID: docB},
			Edges: []types.CitationEdge{
				{From: docB.ID, To: docA.ID, Weight: 1, Confidence: 1.0},
			},
			Influence: map[string]float64{docA.ID: 0.6, docB.ID: 0.4},
			Depth:     map[string]int{docA.ID: 0, docB.ID: 1},
		},
		Trends: []types.TrendBucket{
			{Window: "2021", Code: "F03H", Count: 1, Score: 0.5},
			{Window: "2022", Code: "F03H", Count: 1, Score: 0.5},
		},
		StartedAt:  time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 8, 26, 10, 0, 5, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.StoreConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1")

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	loaded, err := store.LoadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}

	if loaded.Query.Text != run.Query.Text {
		t.Errorf("query text = %q", loaded.Query.Text)
	}
	if len(loaded.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(loaded.Documents))
	}
	if loaded.Documents[0].Specs["thrust"] != "250 mN" {
		t.Errorf("specs lost: %v", loaded.Documents[0].Specs)
	}
	if len(loaded.Graph.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(loaded.Graph.Edges))
	}
	if loaded.Graph.Influence["aaaa000011112222"] != 0.6 {
		t.Errorf("influence lost: %v", loaded.Graph.Influence)
	}
	if loaded.Graph.Depth["bbbb000011112222"] != 1 {
		t.Errorf("depth lost: %v", loaded.Graph.Depth)
	}
	if len(loaded.Trends) != 2 {
		t.Errorf("got %d trend buckets, want 2", len(loaded.Trends))
	}
	if loaded.ProviderStatus["papers"] != types.StatusDegraded {
		t.Errorf("provider status lost: %v", loaded.ProviderStatus)
	}
	if !loaded.FinishedAt.Equal(run.FinishedAt) {
		t.Errorf("finished at = %v", loaded.FinishedAt)
	}
}

func TestLoadRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.LoadRun(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := sampleRun("run-old")
	old.FinishedAt = time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	recent := sampleRun("run-new")

	if err := store.SaveRun(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRun(ctx, recent); err != nil {
		t.Fatal(err)
	}

	summaries, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != "run-new" {
		t.Errorf("first summary = %s, want run-new", summaries[0].ID)
	}
	if summaries[0].Documents != 2 || summaries[0].Edges != 1 {
		t.Errorf("counts = %d docs, %d edges", summaries[0].Documents, summaries[0].Edges)
	}
	if summaries[0].QueryText != "ion thrusters" {
		t.Errorf("query text = %q", summaries[0].QueryText)
	}
}

func TestExportRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveRun(ctx, sampleRun("run-x")); err != nil {
		t.Fatal(err)
	}

	yamlPath, err := store.ExportYAML(ctx, "run-x")
	if err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	if filepath.Ext(yamlPath) != ".yaml" {
		t.Errorf("yaml export path = %s", yamlPath)
	}
	if info, err := os.Stat(yamlPath); err != nil || info.Size() == 0 {
		t.Errorf("yaml export missing or empty: %v", err)
	}

	jsonPath, err := store.ExportJSON(ctx, "run-x")
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Errorf("json export missing or empty: %v", err)
	}
}
