// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/aero-research/pkg/types"
)

const techportFixture = `{
	"projects": [
		{
			"projectId": 94571,
			"title": "Advanced Electric Propulsion System",
			"description": "Development of a 13 kW Hall thruster string.",
			"statusDescription": "Active",
			"startDate": "2016-10-01",
			"lastUpdated": "2024-02-01",
			"leadOrganization": {"organizationName": "Glenn Research Center"},
			"primaryTaxonomyNodes": [{"title": "In-Space Propulsion"}]
		}
	]
}`

func TestTechportSearchAndMap(t *testing.T) {
	var gotSearch string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("searchQuery")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(techportFixture))
	}))
	defer ts.Close()

	orig := techportAPIBase
	techportAPIBase = ts.URL
	defer func() { techportAPIBase = orig }()

	a := &Techport{Client: ts.Client(), MaxResults: 10}
	results, err := a.Search(context.Background(), types.SearchPlan{Terms: []string{"electric", "propulsion"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotSearch != "electric propulsion" {
		t.Errorf("searchQuery = %q", gotSearch)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	doc, err := a.Map(results[0])
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if doc.Identifiers[0] != "TECHPORT-94571" {
		t.Errorf("identifier = %v", doc.Identifiers)
	}
	if doc.Assignees[0] != "Glenn Research Center" {
		t.Errorf("assignees = %v", doc.Assignees)
	}
	if doc.Classifications[0] != "In-Space Propulsion" {
		t.Errorf("classifications = %v", doc.Classifications)
	}
	if doc.PublicationDate.Year() != 2016 {
		t.Errorf("date = %v", doc.PublicationDate)
	}
	if doc.Extensions["techport.status"] != "Active" {
		t.Errorf("extensions = %v", doc.Extensions)
	}
}

func TestTechportEmptyPlan(t *testing.T) {
	a := &Techport{Client: http.DefaultClient}
	_, err := a.Search(context.Background(), types.SearchPlan{})
	var perr *types.ProviderError
	if !errors.As(err, &perr) || perr.Transient {
		t.Fatalf("expected permanent *ProviderError, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	a := &Techport{}
	if _, err := NewRegistry(a, a); err == nil {
		t.Error("duplicate adapter names accepted")
	}
}

func TestRegistrySortsByName(t *testing.T) {
	r, err := NewRegistry(&Techport{}, &Arxiv{}, &PatentsView{}, &OpenAlex{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	all := r.All()
	want := []string{"arxiv", "openalex", "patentsview", "techport"}
	for i, name := range want {
		if all[i].Name() != name {
			t.Errorf("adapter %d = %s, want %s", i, all[i].Name(), name)
		}
	}
	if _, ok := r.Get("arxiv"); !ok {
		t.Error("Get(arxiv) not found")
	}
}
