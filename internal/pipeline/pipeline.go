// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the research stages together: plan, fan out to
// providers, normalize, then build the citation graph and trend buckets
// concurrently. It owns no stage logic of its own.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/aero-research/internal/citegraph"
	"github.com/pdiddy/aero-research/internal/normalizer"
	"github.com/pdiddy/aero-research/internal/orchestrator"
	"github.com/pdiddy/aero-research/internal/planner"
	"github.com/pdiddy/aero-research/internal/provider"
	"github.com/pdiddy/aero-research/internal/trends"
	"github.com/pdiddy/aero-research/pkg/types"
)

// RunResult is everything one research run produced.
type RunResult struct {
	ID    string             `json:"id" yaml:"id"`
	Query types.ResearchQuery `json:"query" yaml:"query"`
	Plan  types.SearchPlan   `json:"plan" yaml:"plan"`

	ProviderStatus map[string]types.ProviderStatus `json:"provider_status" yaml:"provider_status"`
	Reasons        map[string]string               `json:"reasons,omitempty" yaml:"reasons,omitempty"`

	Documents []types.Document    `json:"documents" yaml:"documents"`
	Dropped   int                 `json:"dropped" yaml:"dropped"`
	Graph     types.CitationGraph `json:"graph" yaml:"graph"`
	Trends    []types.TrendBucket `json:"trends" yaml:"trends"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Pipeline executes research runs end to end.
type Pipeline struct {
	planner  *planner.Planner
	orch     *orchestrator.Orchestrator
	norm     *normalizer.Normalizer
	graph    *citegraph.Builder
	registry *provider.Registry
	cfg      types.PipelineConfig
	log      *zap.Logger
}

// New assembles a Pipeline from the given extractor, provider registry,
// and configuration. The breaker, and through it circuit state, persists
// for the lifetime of the Pipeline. A nil logger disables logging.
func New(extractor planner.Extractor, registry *provider.Registry, cfg types.PipelineConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.WithDefaults()

	mappers := make(map[string]normalizer.Mapper)
	for _, a := range registry.All() {
		mappers[a.Name()] = a
	}

	return &Pipeline{
		planner:  planner.New(extractor, cfg.Planner, log),
		orch:     orchestrator.New(cfg.Orchestrator, nil, log),
		norm:     normalizer.New(mappers, log),
		graph:    citegraph.New(cfg.Graph, log),
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one research run. Provider failures degrade the result
// instead of failing it; only an unplannable query or caller cancellation
// returns an error. On cancellation the partial result is returned
// alongside the *types.CancellationError.
func (p *Pipeline) Run(ctx context.Context, query types.ResearchQuery) (RunResult, error) {
	plan, err := p.planner.Plan(ctx, query)
	if err != nil {
		return RunResult{
			ID:        uuid.NewString(),
			Query:     query,
			StartedAt: time.Now().UTC(),
		}, err
	}
	return p.RunPlanned(ctx, query, plan)
}

// RunPlanned executes a run from an already-built plan, e.g. one loaded
// from a saved plan file. Same degradation semantics as Run.
func (p *Pipeline) RunPlanned(ctx context.Context, query types.ResearchQuery, plan types.SearchPlan) (RunResult, error) {
	res := RunResult{
		ID:        uuid.NewString(),
		Query:     query,
		Plan:      plan,
		StartedAt: time.Now().UTC(),
	}

	adapters := make([]orchestrator.Adapter, 0)
	for _, a := range p.registry.All() {
		adapters = append(adapters, a)
	}

	orchRes, orchErr := p.orch.Execute(ctx, plan, adapters)
	res.ProviderStatus = orchRes.ProviderStatus
	res.Reasons = orchRes.Reasons

	docs, dropped := p.norm.Normalize(orchRes.Results)
	res.Documents = docs
	res.Dropped = len(dropped)

	// No data dependency between the graph and the trend buckets.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Graph = p.graph.Build(docs)
	}()
	go func() {
		defer wg.Done()
		res.Trends = trends.Aggregate(docs, p.cfg.Trends.Granularity)
	}()
	wg.Wait()

	res.FinishedAt = time.Now().UTC()
	p.log.Info("run complete",
		zap.String("run", res.ID),
		zap.Int("documents", len(docs)),
		zap.Int("dropped", res.Dropped),
		zap.Int("edges", len(res.Graph.Edges)),
		zap.Bool("degraded_plan", plan.Degraded))
	return res, orchErr
}
