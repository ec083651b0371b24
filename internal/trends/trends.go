// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trends buckets normalized documents by time window and
// classification code so a researcher can see where activity in a
// technology area is concentrating.
package trends

import (
	"sort"

	"github.com/pdiddy/aero-research/pkg/types"
)

// Aggregate counts documents per (window, classification) pair at the
// given granularity. Undated documents land in the "undated" window so
// per-classification totals reconcile with the document set. The score is
// the bucket's share of its classification's total. Output is sorted by
// classification then window.
func Aggregate(docs []types.Document, granularity types.TimeGranularity) []types.TrendBucket {
	type key struct {
		window string
		code   string
	}
	counts := make(map[key]int)
	totals := make(map[string]int)

	for _, d := range docs {
		window := types.UndatedWindow
		if !d.PublicationDate.IsZero() {
			window = granularity.Window(d.PublicationDate)
		}
		for _, code := range d.Classifications {
			if code == "" {
				continue
			}
			counts[key{window, code}]++
			totals[code]++
		}
	}

	buckets := make([]types.TrendBucket, 0, len(counts))
	for k, n := range counts {
		score := 0.0
		if total := totals[k.code]; total > 0 {
			score = float64(n) / float64(total)
		}
		buckets = append(buckets, types.TrendBucket{
			Window: k.window,
			Code:   k.code,
			Count:  n,
			Score:  score,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Code != buckets[j].Code {
			return buckets[i].Code < buckets[j].Code
		}
		return buckets[i].Window < buckets[j].Window
	})
	return buckets
}
