// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citegraph builds the citation graph over normalized documents:
// reference resolution (exact identifier match, then fuzzy title match),
// influence scoring, and generation depth. The build is deterministic for
// a given document set regardless of input order.
//
// See docs/ARCHITECTURE § Citation Graph.
package citegraph

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/aero-research/internal/normalizer"
	"github.com/pdiddy/aero-research/pkg/types"
)

// Builder constructs citation graphs.
type Builder struct {
	cfg types.GraphConfig
	log *zap.Logger
}

// New returns a Builder. A nil logger disables logging.
func New(cfg types.GraphConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{cfg: cfg, log: log}
}

// Build resolves every document's citation references against the corpus
// and returns the resulting graph with influence scores and generation
// depths. References that resolve to nothing, or ambiguously to more than
// one candidate, stay unresolved on the document; ambiguity is logged.
func (b *Builder) Build(docs []types.Document) types.CitationGraph {
	g := types.CitationGraph{
		Nodes:     make(map[string]types.Document, len(docs)),
		Influence: make(map[string]float64, len(docs)),
		Depth:     make(map[string]int, len(docs)),
	}

	// Resolution iterates documents in ID order so the edge set does not
	// depend on input order.
	ordered := make([]types.Document, len(docs))
	copy(ordered, docs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	byIdentifier := make(map[string]string) // lowercased identifier → document ID
	for _, d := range ordered {
		g.Nodes[d.ID] = d
		for _, id := range d.Identifiers {
			byIdentifier[strings.ToLower(id)] = d.ID
		}
	}

	edges := make(map[[2]string]types.CitationEdge)
	for _, d := range ordered {
		for _, ref := range d.CitationRefs {
			to, confidence := b.resolve(ref, d, ordered, byIdentifier)
			if to == "" || to == d.ID {
				continue
			}
			key := [2]string{d.ID, to}
			if prev, ok := edges[key]; !ok || confidence > prev.Confidence {
				edges[key] = types.CitationEdge{From: d.ID, To: to, Weight: 1, Confidence: confidence}
			}
		}
	}

	g.Edges = make([]types.CitationEdge, 0, len(edges))
	for _, e := range edges {
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	g.Influence = b.influence(g)
	g.Depth = depths(g)
	return g
}

// resolve maps one reference string to a document ID. Exact identifier
// matches win with full confidence; otherwise the reference is treated as
// a title and matched fuzzily. A fuzzy match needs a similarity at or
// above the threshold and, when both works are dated, publication years
// within one; two or more qualifying candidates resolve to none.
func (b *Builder) resolve(ref string, citing types.Document, docs []types.Document, byIdentifier map[string]string) (string, float64) {
	if id, ok := byIdentifier[strings.ToLower(strings.TrimSpace(ref))]; ok {
		return id, 1.0
	}

	refTokens := normalizer.TitleTokens(ref)
	if len(refTokens) < 2 {
		// Single-token refs are identifiers that missed, not titles.
		return "", 0
	}

	type candidate struct {
		id    string
		score float64
	}
	var candidates []candidate
	for _, d := range docs {
		if d.ID == citing.ID {
			continue
		}
		if !yearsCompatible(citing, d) {
			continue
		}
		score := jaccard(refTokens, normalizer.TitleTokens(d.Title))
		if score >= b.cfg.SimilarityThreshold {
			candidates = append(candidates, candidate{id: d.ID, score: score})
		}
	}

	switch len(candidates) {
	case 0:
		return "", 0
	case 1:
		return candidates[0].id, candidates[0].score
	default:
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.id
		}
		b.log.Debug("ambiguous citation reference",
			zap.Error(&types.AmbiguousRefError{Ref: ref, Candidates: ids}))
		return "", 0
	}
}

// yearsCompatible gates fuzzy matching on publication year proximity.
// Undated documents pass the gate.
func yearsCompatible(a, bdoc types.Document) bool {
	if a.PublicationDate.IsZero() || bdoc.PublicationDate.IsZero() {
		return true
	}
	diff := a.PublicationDate.Year() - bdoc.PublicationDate.Year()
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// jaccard computes token-set Jaccard similarity over two sorted unique
// token slices.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	common := 0
	for _, t := range b {
		if set[t] {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}
