// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// RawResult is one provider-specific record plus provenance. It is owned by
// the orchestrator until the normalizer maps it to a Document.
type RawResult struct {
	// Provider is the adapter that fetched this record.
	Provider string `json:"provider" yaml:"provider"`

	// RequestID identifies the fetch that produced this record.
	RequestID string `json:"request_id" yaml:"request_id"`

	// FetchedAt is the fetch timestamp. Provenance only: it never feeds
	// into document identity.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// Payload is the provider's record as returned on the wire.
	Payload json.RawMessage `json:"payload" yaml:"payload"`
}

// Document is the canonical record for one real-world patent or paper,
// regardless of how many providers returned it.
type Document struct {
	// ID is a stable hash of normalized title + first assignee/author +
	// publication date. Re-normalizing the same raw input always yields
	// the same ID; it is the dedup key.
	ID string `json:"id" yaml:"id"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Identifiers lists the document's external identifiers (patent
	// number, arXiv ID, DOI). Citation references resolve against these.
	Identifiers []string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// Authors and Assignees are kept separately; papers carry authors,
	// patents carry assignees, some records carry both.
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Assignees []string `json:"assignees,omitempty" yaml:"assignees,omitempty"`

	// Classifications lists IPC/CPC codes or subject categories.
	Classifications []string `json:"classifications,omitempty" yaml:"classifications,omitempty"`

	// PublicationDate is zero when the provider supplied no usable date.
	PublicationDate time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Sources is the set of providers that returned this document.
	Sources []string `json:"sources" yaml:"sources"`

	// Specs maps extracted technical parameter names to values
	// (e.g. "thrust" → "4500 N").
	Specs map[string]string `json:"specs,omitempty" yaml:"specs,omitempty"`

	// CitationRefs lists outgoing citation references as external
	// identifiers, not yet resolved to document IDs. References that
	// never resolve stay here; they are not materialized as edges.
	CitationRefs []string `json:"citation_refs,omitempty" yaml:"citation_refs,omitempty"`

	// Extensions preserves provider fields the canonical schema does not
	// model, keyed as "provider.field".
	Extensions map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// FirstParty returns the leading assignee if present, else the leading
// author, else "". Used as the identity component of the dedup hash.
func (d Document) FirstParty() string {
	if len(d.Assignees) > 0 {
		return d.Assignees[0]
	}
	if len(d.Authors) > 0 {
		return d.Authors[0]
	}
	return ""
}

// CitationEdge is a directed, resolved citation between two documents that
// both survived normalization.
type CitationEdge struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Weight float64 `json:"weight" yaml:"weight"`

	// Confidence is 1.0 for exact identifier matches and the title
	// similarity for fuzzy matches.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// CitationGraph is the directed graph over one run's documents. It is
// rebuilt per run and never persisted incrementally. Cycles are retained
// as-is; algorithms over the graph must tolerate them.
type CitationGraph struct {
	// Nodes maps document ID to document.
	Nodes map[string]Document `json:"nodes" yaml:"nodes"`

	// Edges holds at most one edge per ordered (From, To) pair.
	Edges []CitationEdge `json:"edges" yaml:"edges"`

	// Influence is the per-document influence score from damped
	// in-degree propagation. Finite for every node, cycles included.
	Influence map[string]float64 `json:"influence" yaml:"influence"`

	// Depth is the generation depth per document: documents in the same
	// strongly connected component share a tier.
	Depth map[string]int `json:"depth" yaml:"depth"`
}

// UndatedWindow labels the trend bucket for documents without a usable
// publication date, so bucket totals reconcile with document counts.
const UndatedWindow = "undated"

// TrendBucket is the document count for one (time window, classification)
// pair plus a score normalized by the classification's total.
type TrendBucket struct {
	Window string  `json:"window" yaml:"window"`
	Code   string  `json:"code" yaml:"code"`
	Count  int     `json:"count" yaml:"count"`
	Score  float64 `json:"score" yaml:"score"`
}
