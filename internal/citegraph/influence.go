// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citegraph

import (
	"sort"

	"github.com/pdiddy/aero-research/pkg/types"
)

// influence scores every node by damped citation propagation: a document
// is influential when influential documents cite it. Scores start uniform
// and iterate to an L1 fixed point; documents that cite nothing
// redistribute their mass uniformly so the total stays 1. Cycles
// converge because of the damping factor.
func (b *Builder) influence(g types.CitationGraph) map[string]float64 {
	n := len(g.Nodes)
	if n == 0 {
		return map[string]float64{}
	}

	ids := make([]string, 0, n)
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	outDegree := make(map[string]int, n)
	incoming := make(map[string][]string, n) // cited ← citing
	for _, e := range g.Edges {
		outDegree[e.From]++
		incoming[e.To] = append(incoming[e.To], e.From)
	}

	damping := b.cfg.Damping
	uniform := 1.0 / float64(n)
	scores := make(map[string]float64, n)
	for _, id := range ids {
		scores[id] = uniform
	}

	for iter := 0; iter < b.cfg.MaxIterations; iter++ {
		sinkMass := 0.0
		for _, id := range ids {
			if outDegree[id] == 0 {
				sinkMass += scores[id]
			}
		}

		next := make(map[string]float64, n)
		delta := 0.0
		for _, id := range ids {
			sum := 0.0
			for _, from := range incoming[id] {
				sum += scores[from] / float64(outDegree[from])
			}
			s := (1-damping)*uniform + damping*(sum+sinkMass*uniform)
			next[id] = s
			d := s - scores[id]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		scores = next
		if delta < b.cfg.Epsilon {
			break
		}
	}
	return scores
}

// depths assigns each document a generation tier: documents that cite
// nothing inside the corpus are generation 0, and a document sits one
// tier above the deepest work it cites. Strongly connected components
// collapse into a single tier so citation cycles cannot produce an
// unbounded depth.
func depths(g types.CitationGraph) map[string]int {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// From cites To, so the depth recurrence follows From → To edges.
	out := make(map[string][]string, len(ids))
	for _, e := range g.Edges {
		out[e.From] = append(out[e.From], e.To)
	}

	component := condense(ids, out)

	// Component-level DAG and component depth by memoized recursion.
	compOut := make(map[int]map[int]bool)
	for _, e := range g.Edges {
		cf, ct := component[e.From], component[e.To]
		if cf == ct {
			continue
		}
		if compOut[cf] == nil {
			compOut[cf] = make(map[int]bool)
		}
		compOut[cf][ct] = true
	}

	compDepth := make(map[int]int)
	var depthOf func(c int) int
	depthOf = func(c int) int {
		if d, ok := compDepth[c]; ok {
			return d
		}
		compDepth[c] = 0 // settled before recursion; the DAG has no cycles
		max := 0
		for next := range compOut[c] {
			if d := depthOf(next) + 1; d > max {
				max = d
			}
		}
		compDepth[c] = max
		return max
	}

	result := make(map[string]int, len(ids))
	for _, id := range ids {
		result[id] = depthOf(component[id])
	}
	return result
}

// condense runs Tarjan's algorithm and returns each node's strongly
// connected component index.
func condense(ids []string, out map[string][]string) map[string]int {
	index := make(map[string]int, len(ids))
	lowlink := make(map[string]int, len(ids))
	onStack := make(map[string]bool, len(ids))
	component := make(map[string]int, len(ids))
	var stack []string
	counter := 0
	comps := 0

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range out[v] {
			if _, visited := index[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] == index[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component[w] = comps
				if w == v {
					break
				}
			}
			comps++
		}
	}

	for _, id := range ids {
		if _, visited := index[id]; !visited {
			strongconnect(id)
		}
	}
	return component
}
