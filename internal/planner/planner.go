// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns a free-text research question into a structured,
// provider-agnostic search plan: terms, classification codes, subsystem
// tags, and a boolean query expression tree.
//
// See docs/ARCHITECTURE § Query Planning.
package planner

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/aero-research/pkg/types"
)

// Extraction is the term/classification extractor's output.
type Extraction struct {
	// Terms are the key technical terms found in the query.
	Terms []string

	// Codes are classification code candidates with confidences.
	Codes []types.ClassCode

	// Subsystems are aerospace subsystem tags (e.g. "propulsion").
	Subsystems []string
}

// Extractor is the external term/classification extraction collaborator.
// It may be slow or unavailable; the planner degrades gracefully.
type Extractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}

// Planner builds search plans. Pure with respect to its inputs except for
// the single Extractor call.
type Planner struct {
	extractor Extractor
	cfg       types.PlannerConfig
	log       *zap.Logger
}

// New returns a Planner using the given extractor. A nil logger disables
// logging.
func New(extractor Extractor, cfg types.PlannerConfig, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{extractor: extractor, cfg: cfg, log: log}
}

// Plan decomposes query into a SearchPlan. The plan always carries a
// non-empty term set; classification codes are advisory. When the
// extractor is unreachable the planner falls back to stopword-filtered
// keyword extraction and flags the plan Degraded. Returns *PlanningError
// when the query text is empty or no terms can be produced at all.
func (p *Planner) Plan(ctx context.Context, query types.ResearchQuery) (types.SearchPlan, error) {
	if query.IsEmpty() {
		return types.SearchPlan{}, &types.PlanningError{Reason: "query text is empty"}
	}

	plan := types.SearchPlan{
		DateFrom:      query.DateFrom,
		DateTo:        query.DateTo,
		Organizations: query.Organizations,
		WantCitations: query.WantCitations,
	}

	ext, err := p.extractor.Extract(ctx, query.Text)
	if err != nil {
		p.log.Warn("classification extractor unreachable, planning degraded",
			zap.String("query", query.Text), zap.Error(err))
		plan.Terms = FallbackTerms(query.Text, p.cfg.MaxFallbackTerms)
		if len(plan.Terms) == 0 {
			return types.SearchPlan{}, &types.PlanningError{
				Reason: "extractor unreachable and fallback keyword extraction produced no terms",
			}
		}
		// Cosmonautics is the safest default scope for an aerospace query.
		plan.Codes = []string{"B64G"}
		plan.Degraded = true
		plan.Expr = buildExpr(plan)
		return plan, nil
	}

	plan.Terms = dedupeStrings(ext.Terms)
	if len(plan.Terms) == 0 {
		plan.Terms = FallbackTerms(query.Text, p.cfg.MaxFallbackTerms)
	}
	if len(plan.Terms) == 0 {
		return types.SearchPlan{}, &types.PlanningError{
			Reason: "no searchable terms in query",
		}
	}

	// Keep every candidate at or above the confidence floor; downstream
	// providers treat multiple codes as disjunctive filters.
	for _, c := range ext.Codes {
		if c.Confidence >= p.cfg.ConfidenceFloor {
			plan.Codes = append(plan.Codes, c.Code)
		}
	}
	plan.Codes = dedupeStrings(plan.Codes)
	sort.Strings(plan.Codes)

	plan.Subsystems = dedupeStrings(ext.Subsystems)
	plan.Expr = buildExpr(plan)

	p.log.Debug("plan built",
		zap.Strings("terms", plan.Terms),
		zap.Strings("codes", plan.Codes),
		zap.Strings("subsystems", plan.Subsystems))
	return plan, nil
}

// buildExpr assembles the boolean expression tree: terms are disjunctive,
// combined conjunctively with the disjunction of codes and the disjunction
// of organizations.
func buildExpr(plan types.SearchPlan) *types.BoolExpr {
	var termLeaves []*types.BoolExpr
	for _, t := range plan.Terms {
		termLeaves = append(termLeaves, types.Term(types.FieldAny, t))
	}
	var codeLeaves []*types.BoolExpr
	for _, c := range plan.Codes {
		codeLeaves = append(codeLeaves, types.Term(types.FieldClassification, c))
	}
	var orgLeaves []*types.BoolExpr
	for _, o := range plan.Organizations {
		orgLeaves = append(orgLeaves, types.Term(types.FieldOrganization, o))
	}
	return types.And(types.Or(termLeaves...), types.Or(codeLeaves...), types.Or(orgLeaves...))
}

// stopwords are dropped by fallback keyword extraction.
var stopwords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true,
	"research": true, "find": true, "about": true, "with": true,
	"that": true, "this": true, "these": true, "those": true,
	"recent": true, "latest": true, "papers": true, "patents": true,
	"related": true, "between": true, "from": true, "into": true,
}

// FallbackTerms extracts up to max keywords from free text without the
// extractor: lowercase, punctuation stripped, stopwords and short words
// dropped, input order preserved.
func FallbackTerms(text string, max int) []string {
	if max <= 0 {
		max = 5
	}
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(w) <= 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) == max {
			break
		}
	}
	return terms
}

// dedupeStrings removes duplicates and empty strings, preserving order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
