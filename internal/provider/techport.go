// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/aero-research/pkg/types"
)

// techportAPIBase is the NASA TechPort project search endpoint. Declared
// as a var so tests can substitute an httptest server.
var techportAPIBase = "https://techport.nasa.gov/api/projects/search"

// Techport is the agency repository adapter for NASA technology projects.
// The API takes a plain search string; no classification, date, or
// citation support.
type Techport struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the adapter identifier.
func (a *Techport) Name() string { return "techport" }

// Capability describes what TechPort supports.
func (a *Techport) Capability() types.ProviderCapability {
	return types.ProviderCapability{
		TermSearch:           true,
		ClassificationFilter: false,
		DateFilter:           false,
		CitationData:         false,
		RateLimit:            1,
		Burst:                1,
		QualityRank:          1,
	}
}

// Search queries TechPort and returns one RawResult per project.
func (a *Techport) Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error) {
	searchText := strings.Join(plan.Terms, " ")
	if searchText == "" {
		return nil, permanentErr(a.Name(), fmt.Errorf("plan renders to an empty TechPort query"))
	}

	params := url.Values{"searchQuery": {searchText}}
	reqURL := techportAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, requestErr(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(a.Name(), resp.StatusCode)
	}

	var tr techportResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("parsing TechPort response: %w", err))
	}

	maxResults := a.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if len(tr.Projects) > maxResults {
		tr.Projects = tr.Projects[:maxResults]
	}

	now := time.Now().UTC()
	results := make([]types.RawResult, 0, len(tr.Projects))
	for _, proj := range tr.Projects {
		payload, err := json.Marshal(proj)
		if err != nil {
			continue
		}
		results = append(results, types.RawResult{
			Provider:  a.Name(),
			RequestID: uuid.NewString(),
			FetchedAt: now,
			Payload:   payload,
		})
	}
	return results, nil
}

// Map converts one TechPort project into the canonical Document shape.
func (a *Techport) Map(raw types.RawResult) (types.Document, error) {
	var p techportProject
	if err := json.Unmarshal(raw.Payload, &p); err != nil {
		return types.Document{}, fmt.Errorf("parsing TechPort payload: %w", err)
	}
	if p.ProjectID == 0 || p.Title == "" {
		return types.Document{}, fmt.Errorf("TechPort project missing id or title")
	}

	doc := types.Document{
		Title:       p.Title,
		Abstract:    p.Description,
		Identifiers: []string{fmt.Sprintf("TECHPORT-%d", p.ProjectID)},
	}
	if p.LeadOrganization.Name != "" {
		doc.Assignees = append(doc.Assignees, p.LeadOrganization.Name)
	}
	for _, n := range p.TaxonomyNodes {
		if n.Title != "" {
			doc.Classifications = append(doc.Classifications, n.Title)
		}
	}
	if p.StartDate != "" {
		if t, parseErr := time.Parse("2006-01-02", p.StartDate); parseErr == nil {
			doc.PublicationDate = t
		}
	}

	doc.Extensions = map[string]string{}
	if p.Status != "" {
		doc.Extensions["techport.status"] = p.Status
	}
	if p.LastUpdated != "" {
		doc.Extensions["techport.last_updated"] = p.LastUpdated
	}
	return doc, nil
}

// TechPort API JSON structures.
type techportResponse struct {
	Projects []techportProject `json:"projects"`
}

type techportProject struct {
	ProjectID        int                    `json:"projectId"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Status           string                 `json:"statusDescription"`
	StartDate        string                 `json:"startDate"`
	LastUpdated      string                 `json:"lastUpdated"`
	LeadOrganization techportOrganization   `json:"leadOrganization"`
	TaxonomyNodes    []techportTaxonomyNode `json:"primaryTaxonomyNodes"`
}

type techportOrganization struct {
	Name string `json:"organizationName"`
}

type techportTaxonomyNode struct {
	Title string `json:"title"`
}
