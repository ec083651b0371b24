// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProviderCapability declares what one provider adapter supports. Static
// per adapter, registered at process start.
type ProviderCapability struct {
	// TermSearch reports whether the provider accepts free-term queries.
	TermSearch bool `json:"term_search" yaml:"term_search"`

	// ClassificationFilter reports whether the provider can filter by
	// IPC/CPC code or subject category.
	ClassificationFilter bool `json:"classification_filter" yaml:"classification_filter"`

	// DateFilter reports whether the provider can filter by publication date.
	DateFilter bool `json:"date_filter" yaml:"date_filter"`

	// CitationData reports whether results include citation references.
	CitationData bool `json:"citation_data" yaml:"citation_data"`

	// CitationOnly marks providers that return citation data but no
	// searchable records of their own; skipped unless the plan requests
	// citations.
	CitationOnly bool `json:"citation_only,omitempty" yaml:"citation_only,omitempty"`

	// RateLimit is the provider's request budget in requests per second.
	// Zero means unlimited.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// Burst is the rate limiter burst size; defaults to 1 when RateLimit
	// is set.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`

	// QualityRank orders providers for merge conflicts during
	// normalization; higher wins, first-seen wins a tie.
	QualityRank int `json:"quality_rank" yaml:"quality_rank"`
}

// Compatible reports whether an adapter with this capability should run
// for the given plan. Providers without term search cannot serve a term
// plan; citation-only providers run only when citations are requested.
func (c ProviderCapability) Compatible(plan SearchPlan) bool {
	if c.CitationOnly && !plan.WantCitations {
		return false
	}
	return c.TermSearch || c.CitationOnly
}

// ProviderStatus is the per-adapter outcome of one orchestration run.
type ProviderStatus string

const (
	// StatusSuccess: the adapter completed and contributed results
	// (possibly zero).
	StatusSuccess ProviderStatus = "success"

	// StatusDegraded: the adapter timed out; it contributed nothing but
	// did not affect other adapters.
	StatusDegraded ProviderStatus = "degraded"

	// StatusFailed: the adapter failed permanently or exhausted retries.
	StatusFailed ProviderStatus = "failed"

	// StatusCircuitOpen: the adapter was skipped proactively after
	// repeated failures across recent history.
	StatusCircuitOpen ProviderStatus = "circuit_open"

	// StatusCancelled: the run was cancelled before the adapter finished.
	StatusCancelled ProviderStatus = "cancelled"

	// StatusSkipped: the adapter's capability is incompatible with the plan.
	StatusSkipped ProviderStatus = "skipped"
)
