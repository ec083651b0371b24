// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trends

import (
	"math"
	"testing"
	"time"

	"github.com/pdiddy/aero-research/pkg/types"
)

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
}

func TestAggregateByYear(t *testing.T) {
	docs := []types.Document{
		{ID: "a", Classifications: []string{"F03H"}, PublicationDate: date(2022, time.March)},
		{ID: "b", Classifications: []string{"F03H"}, PublicationDate: date(2022, time.November)},
		{ID: "c", Classifications: []string{"F03H", "B64G"}, PublicationDate: date(2023, time.January)},
	}

	buckets := Aggregate(docs, types.GranularityYear)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3: %v", len(buckets), buckets)
	}

	// Sorted by code then window: B64G/2023, F03H/2022, F03H/2023.
	if buckets[0].Code != "B64G" || buckets[0].Window != "2023" || buckets[0].Count != 1 {
		t.Errorf("bucket 0 = %+v", buckets[0])
	}
	if buckets[1].Code != "F03H" || buckets[1].Window != "2022" || buckets[1].Count != 2 {
		t.Errorf("bucket 1 = %+v", buckets[1])
	}
	if math.Abs(buckets[1].Score-2.0/3.0) > 1e-9 {
		t.Errorf("F03H/2022 score = %f, want 2/3", buckets[1].Score)
	}
}

func TestAggregateGranularities(t *testing.T) {
	docs := []types.Document{
		{ID: "a", Classifications: []string{"F03H"}, PublicationDate: date(2023, time.May)},
	}

	month := Aggregate(docs, types.GranularityMonth)
	if month[0].Window != "2023-05" {
		t.Errorf("month window = %s", month[0].Window)
	}
	quarter := Aggregate(docs, types.GranularityQuarter)
	if quarter[0].Window != "2023-Q2" {
		t.Errorf("quarter window = %s", quarter[0].Window)
	}
	year := Aggregate(docs, types.GranularityYear)
	if year[0].Window != "2023" {
		t.Errorf("year window = %s", year[0].Window)
	}
}

func TestAggregateUndatedReconciles(t *testing.T) {
	docs := []types.Document{
		{ID: "a", Classifications: []string{"B64G"}, PublicationDate: date(2023, time.May)},
		{ID: "b", Classifications: []string{"B64G"}},
		{ID: "c", Classifications: []string{"B64G"}},
	}

	buckets := Aggregate(docs, types.GranularityYear)

	total := 0
	scoreSum := 0.0
	undated := false
	for _, b := range buckets {
		total += b.Count
		scoreSum += b.Score
		if b.Window == types.UndatedWindow {
			undated = true
			if b.Count != 2 {
				t.Errorf("undated count = %d, want 2", b.Count)
			}
		}
	}
	if !undated {
		t.Fatal("no undated bucket emitted")
	}
	if total != 3 {
		t.Errorf("bucket counts total %d, want 3 (reconciles with documents)", total)
	}
	if math.Abs(scoreSum-1.0) > 1e-9 {
		t.Errorf("scores sum to %f, want 1.0 per classification", scoreSum)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if buckets := Aggregate(nil, types.GranularityYear); len(buckets) != 0 {
		t.Errorf("got %d buckets from no documents", len(buckets))
	}

	// Documents without classifications produce no buckets, not a panic.
	docs := []types.Document{{ID: "a", PublicationDate: date(2023, time.May)}}
	if buckets := Aggregate(docs, types.GranularityYear); len(buckets) != 0 {
		t.Errorf("got %d buckets from unclassified documents", len(buckets))
	}
}
