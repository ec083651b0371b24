// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "aero-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PlannerConfig holds settings for the query planning stage.
type PlannerConfig struct {
	// ConfidenceFloor is the minimum extractor confidence for a
	// classification code to enter the plan (default 0.35). All
	// candidates at or above the floor are kept.
	ConfidenceFloor float64 `json:"confidence_floor" yaml:"confidence_floor"`

	// MaxFallbackTerms caps the terms produced by fallback keyword
	// extraction when the extractor is unreachable (default 5).
	MaxFallbackTerms int `json:"max_fallback_terms" yaml:"max_fallback_terms"`
}

// OrchestratorConfig holds settings for the source orchestration stage.
type OrchestratorConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxInFlight is the global cap on concurrent adapter calls, not a
	// per-adapter limit (default 4).
	MaxInFlight int `json:"max_in_flight" yaml:"max_in_flight"`

	// AdapterTimeout bounds each adapter call individually (default 30s).
	// A timeout marks the adapter Degraded without affecting others.
	AdapterTimeout time.Duration `json:"adapter_timeout" yaml:"adapter_timeout"`

	// MaxRetries is the retry bound for transient adapter failures
	// (default 2 retries after the initial attempt).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the base for exponential backoff with jitter
	// (default 500ms).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// BreakerThreshold is the consecutive-failure count that opens a
	// provider's circuit (default 3).
	BreakerThreshold int `json:"breaker_threshold" yaml:"breaker_threshold"`

	// BreakerCooldown is how long an open circuit skips a provider
	// (default 60s).
	BreakerCooldown time.Duration `json:"breaker_cooldown" yaml:"breaker_cooldown"`

	// MaxResults is the per-provider result cap passed to adapters
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// GraphConfig holds settings for the citation graph builder.
type GraphConfig struct {
	// SimilarityThreshold is the minimum normalized-title similarity for
	// fuzzy citation resolution (default 0.80).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// Damping is the influence propagation damping factor (default 0.85).
	Damping float64 `json:"damping" yaml:"damping"`

	// MaxIterations caps the influence fixed-point iteration (default 30).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Epsilon is the L1 convergence threshold; iteration stops at
	// whichever of the cap or convergence comes first (default 1e-6).
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`
}

// TrendConfig holds settings for the trend aggregation stage.
type TrendConfig struct {
	// Granularity selects the time bucketing window (default "year").
	Granularity TimeGranularity `json:"granularity" yaml:"granularity"`
}

// StoreConfig holds settings for the run store.
type StoreConfig struct {
	// Dir is the directory holding the runs database (default "runs").
	Dir string `json:"dir" yaml:"dir"`
}

// LogConfig holds logger construction parameters.
type LogConfig struct {
	// Level is the minimum severity: "debug", "info", "warn", "error"
	// (default "info").
	Level string `json:"level" yaml:"level"`

	// Format is "json" or "console" (default "console").
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Planner      PlannerConfig      `json:"planner" yaml:"planner"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Graph        GraphConfig        `json:"graph" yaml:"graph"`
	Trends       TrendConfig        `json:"trends" yaml:"trends"`
	Store        StoreConfig        `json:"store" yaml:"store"`
	Log          LogConfig          `json:"log" yaml:"log"`
}

// WithDefaults returns a copy of cfg with zero-valued fields replaced by
// documented defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Planner.ConfidenceFloor <= 0 {
		c.Planner.ConfidenceFloor = 0.35
	}
	if c.Planner.MaxFallbackTerms <= 0 {
		c.Planner.MaxFallbackTerms = 5
	}
	if c.Orchestrator.Timeout <= 0 {
		c.Orchestrator.Timeout = 20 * time.Second
	}
	if c.Orchestrator.UserAgent == "" {
		c.Orchestrator.UserAgent = "aero-research/0.1"
	}
	if c.Orchestrator.MaxInFlight <= 0 {
		c.Orchestrator.MaxInFlight = 4
	}
	if c.Orchestrator.AdapterTimeout <= 0 {
		c.Orchestrator.AdapterTimeout = 30 * time.Second
	}
	if c.Orchestrator.MaxRetries < 0 {
		c.Orchestrator.MaxRetries = 0
	} else if c.Orchestrator.MaxRetries == 0 {
		c.Orchestrator.MaxRetries = 2
	}
	if c.Orchestrator.RetryBaseDelay <= 0 {
		c.Orchestrator.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.Orchestrator.BreakerThreshold <= 0 {
		c.Orchestrator.BreakerThreshold = 3
	}
	if c.Orchestrator.BreakerCooldown <= 0 {
		c.Orchestrator.BreakerCooldown = 60 * time.Second
	}
	if c.Orchestrator.MaxResults <= 0 {
		c.Orchestrator.MaxResults = 20
	}
	if c.Graph.SimilarityThreshold <= 0 {
		c.Graph.SimilarityThreshold = 0.80
	}
	if c.Graph.Damping <= 0 {
		c.Graph.Damping = 0.85
	}
	if c.Graph.MaxIterations <= 0 {
		c.Graph.MaxIterations = 30
	}
	if c.Graph.Epsilon <= 0 {
		c.Graph.Epsilon = 1e-6
	}
	if c.Trends.Granularity == "" {
		c.Trends.Granularity = GranularityYear
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "runs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	return c
}
