// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/aero-research/pkg/types"
)

const patentsViewFixture = `{
	"patents": [
		{
			"patent_id": "11000001",
			"patent_title": "Ion thruster with gridded accelerator",
			"patent_abstract": "An ion thruster producing 250 mN of thrust.",
			"patent_date": "2023-03-14",
			"patent_type": "utility",
			"patent_num_claims": 18,
			"inventors": [{"inventor_name_last": "Chen"}],
			"assignees": [{"assignee_organization": "Aerojet Rocketdyne"}],
			"cpc_current": [{"cpc_group_id": "F03H1/00"}],
			"us_patent_citations": [{"cited_patent_id": "9000001"}]
		}
	],
	"count": 1,
	"total_patent_count": 1
}`

func termPlan(terms ...string) types.SearchPlan {
	var leaves []*types.BoolExpr
	for _, t := range terms {
		leaves = append(leaves, types.Term(types.FieldAny, t))
	}
	return types.SearchPlan{Terms: terms, Expr: types.Or(leaves...)}
}

func TestPatentsViewSearchAndMap(t *testing.T) {
	var gotQuery, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(patentsViewFixture))
	}))
	defer ts.Close()

	orig := patentsViewSearchBase
	patentsViewSearchBase = ts.URL + "/"
	defer func() { patentsViewSearchBase = orig }()

	a := &PatentsView{Client: ts.Client(), APIKey: "test-key", MaxResults: 10}
	results, err := a.Search(context.Background(), termPlan("ion thruster"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if gotKey != "test-key" {
		t.Errorf("X-Api-Key = %q", gotKey)
	}
	if !strings.Contains(gotQuery, "_text_any") {
		t.Errorf("query missing term clause: %s", gotQuery)
	}
	if results[0].Provider != "patentsview" || results[0].RequestID == "" {
		t.Errorf("raw result metadata incomplete: %+v", results[0])
	}

	doc, err := a.Map(results[0])
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if doc.Identifiers[0] != "US11000001" {
		t.Errorf("identifier = %v", doc.Identifiers)
	}
	if doc.Assignees[0] != "Aerojet Rocketdyne" {
		t.Errorf("assignees = %v", doc.Assignees)
	}
	if len(doc.CitationRefs) != 1 || doc.CitationRefs[0] != "US9000001" {
		t.Errorf("citation refs = %v", doc.CitationRefs)
	}
	if doc.PublicationDate.Format("2006-01-02") != "2023-03-14" {
		t.Errorf("date = %v", doc.PublicationDate)
	}
	if doc.Extensions["patentsview.num_claims"] != "18" {
		t.Errorf("extensions = %v", doc.Extensions)
	}
}

func TestPatentsViewStatusClassification(t *testing.T) {
	for _, tc := range []struct {
		status    int
		transient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
	} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))

		orig := patentsViewSearchBase
		patentsViewSearchBase = ts.URL + "/"

		a := &PatentsView{Client: ts.Client()}
		_, err := a.Search(context.Background(), termPlan("x"))

		patentsViewSearchBase = orig
		ts.Close()

		var perr *types.ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("status %d: expected *ProviderError, got %v", tc.status, err)
		}
		if perr.Transient != tc.transient {
			t.Errorf("status %d: transient = %v, want %v", tc.status, perr.Transient, tc.transient)
		}
	}
}

func TestPatentsViewMapRejectsIncomplete(t *testing.T) {
	a := &PatentsView{}
	raw := types.RawResult{Provider: "patentsview", Payload: json.RawMessage(`{"patent_id":""}`)}
	if _, err := a.Map(raw); err == nil {
		t.Error("expected error for record without id/title")
	}
}

func TestRenderPatentsViewQuery(t *testing.T) {
	plan := types.SearchPlan{
		Terms: []string{"ion thruster"},
		Codes: []string{"F03H"},
		Expr: types.And(
			types.Term(types.FieldAny, "ion thruster"),
			types.Term(types.FieldClassification, "F03H"),
			types.Term(types.FieldOrganization, "NASA"),
		),
		DateFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	q := renderPatentsViewQuery(plan)
	if !json.Valid([]byte(q)) {
		t.Fatalf("rendered query is not valid JSON: %s", q)
	}
	for _, want := range []string{
		`"_begins":{"cpc_current.cpc_group_id":"F03H"}`,
		`"_contains":{"assignees.assignee_organization":"NASA"}`,
		`"_gte":{"patent_date":"2020-01-01"}`,
		`"_text_any":{"patent_title":"ion thruster"}`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %s:\n%s", want, q)
		}
	}
}

func TestRenderPatentsViewQueryEscapes(t *testing.T) {
	plan := types.SearchPlan{Expr: types.Term(types.FieldAny, `wing "flap" \design`)}
	q := renderPatentsViewQuery(plan)
	if !json.Valid([]byte(q)) {
		t.Fatalf("escaped query is not valid JSON: %s", q)
	}
}
