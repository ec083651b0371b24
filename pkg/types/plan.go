// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the aero-research pipeline:
// the research query and its search plan, provider capabilities and raw
// results, the canonical document, the citation graph, and trend buckets.
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

import (
	"fmt"
	"time"
)

// ResearchQuery is the researcher's input: free text plus optional filters.
// Immutable once submitted to the planner.
type ResearchQuery struct {
	// Text is the free-text research question (e.g. "ion thrusters").
	Text string `json:"text" yaml:"text"`

	// DateFrom and DateTo bound the publication date range. Zero values
	// mean unbounded.
	DateFrom time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo   time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`

	// Organizations restricts results to the given assignees/institutions.
	Organizations []string `json:"organizations,omitempty" yaml:"organizations,omitempty"`

	// WantCitations requests citation reference data from providers that
	// can supply it. Citation-only providers are skipped when false.
	WantCitations bool `json:"want_citations" yaml:"want_citations"`
}

// IsEmpty reports whether the query contains no searchable text.
func (q ResearchQuery) IsEmpty() bool {
	return q.Text == ""
}

// ClassCode is a classification code candidate with the extractor's
// confidence. All candidates above the planner's confidence floor are kept;
// downstream providers treat them as disjunctive filters.
type ClassCode struct {
	Code       string  `json:"code" yaml:"code"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// SearchPlan is the provider-agnostic decomposition of a ResearchQuery.
// It is produced once per query and never mutated afterward; a failed
// provider yields zero results, never a plan edit.
type SearchPlan struct {
	// Terms is the ordered set of search terms. Never empty for a valid plan.
	Terms []string `json:"terms" yaml:"terms"`

	// Codes lists classification codes (IPC/CPC). Advisory: an empty set
	// still produces a valid plan.
	Codes []string `json:"codes,omitempty" yaml:"codes,omitempty"`

	// Subsystems tags the aerospace subsystems the query touches
	// (e.g. "propulsion", "avionics").
	Subsystems []string `json:"subsystems,omitempty" yaml:"subsystems,omitempty"`

	// Expr is the boolean query expression tree. Each provider adapter
	// renders it into its own wire syntax.
	Expr *BoolExpr `json:"expr,omitempty" yaml:"expr,omitempty"`

	// DateFrom, DateTo and Organizations carry the query filters.
	DateFrom      time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo        time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	Organizations []string  `json:"organizations,omitempty" yaml:"organizations,omitempty"`

	// WantCitations is copied from the originating query.
	WantCitations bool `json:"want_citations" yaml:"want_citations"`

	// Degraded marks a plan built without the classification extractor
	// (fallback keyword extraction only).
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// BoolOp identifies a node kind in the boolean expression tree.
type BoolOp string

const (
	// OpAnd requires all children to match.
	OpAnd BoolOp = "and"
	// OpOr requires at least one child to match.
	OpOr BoolOp = "or"
	// OpTerm is a leaf carrying a single term and the field it applies to.
	OpTerm BoolOp = "term"
)

// Field names for OpTerm leaves.
const (
	FieldAny            = "any"
	FieldClassification = "classification"
	FieldOrganization   = "organization"
)

// BoolExpr is a node in the provider-agnostic boolean query tree.
type BoolExpr struct {
	Op       BoolOp      `json:"op" yaml:"op"`
	Term     string      `json:"term,omitempty" yaml:"term,omitempty"`
	Field    string      `json:"field,omitempty" yaml:"field,omitempty"`
	Children []*BoolExpr `json:"children,omitempty" yaml:"children,omitempty"`
}

// Term returns an OpTerm leaf for field/term.
func Term(field, term string) *BoolExpr {
	return &BoolExpr{Op: OpTerm, Field: field, Term: term}
}

// And returns an OpAnd node over children, collapsing the single-child case.
func And(children ...*BoolExpr) *BoolExpr {
	return combine(OpAnd, children)
}

// Or returns an OpOr node over children, collapsing the single-child case.
func Or(children ...*BoolExpr) *BoolExpr {
	return combine(OpOr, children)
}

func combine(op BoolOp, children []*BoolExpr) *BoolExpr {
	kept := children[:0:0]
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &BoolExpr{Op: op, Children: kept}
	}
}

// TimeGranularity selects the trend bucketing window.
type TimeGranularity string

const (
	GranularityMonth   TimeGranularity = "month"
	GranularityQuarter TimeGranularity = "quarter"
	GranularityYear    TimeGranularity = "year"
)

// Window returns the bucket label for t at this granularity
// (e.g. "2023-04", "2023-Q2", "2023").
func (g TimeGranularity) Window(t time.Time) string {
	switch g {
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityQuarter:
		q := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%s-Q%d", t.Format("2006"), q)
	default:
		return t.Format("2006")
	}
}
