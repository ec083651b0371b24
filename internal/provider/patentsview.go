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

// patentsViewSearchBase is the PatentsView patent search endpoint. Declared
// as a var so tests can substitute an httptest server.
var patentsViewSearchBase = "https://search.patentsview.org/api/v1/patent/"

// patentsViewFields lists the fields requested from the API.
const patentsViewFields = `["patent_id","patent_title","patent_abstract","patent_date","patent_type","patent_num_claims","inventors.inventor_name_last","assignees.assignee_organization","cpc_current.cpc_group_id","us_patent_citations.cited_patent_id"]`

// PatentsView is the patents provider adapter.
type PatentsView struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxResults int
}

// Name returns the adapter identifier.
func (a *PatentsView) Name() string { return "patentsview" }

// Capability describes what PatentsView supports.
func (a *PatentsView) Capability() types.ProviderCapability {
	return types.ProviderCapability{
		TermSearch:           true,
		ClassificationFilter: true,
		DateFilter:           true,
		CitationData:         true,
		RateLimit:            0.75, // 45 requests/minute
		Burst:                1,
		QualityRank:          3,
	}
}

// Search queries the PatentsView API and returns one RawResult per patent.
func (a *PatentsView) Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error) {
	q := renderPatentsViewQuery(plan)
	if q == "" {
		return nil, permanentErr(a.Name(), fmt.Errorf("plan renders to an empty PatentsView query"))
	}

	maxResults := a.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 1000 {
		maxResults = 1000
	}

	params := url.Values{
		"q": {q},
		"f": {patentsViewFields},
		"o": {fmt.Sprintf(`{"per_page":%d}`, maxResults)},
	}

	reqURL := patentsViewSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", a.UserAgent)
	if a.APIKey != "" {
		req.Header.Set("X-Api-Key", a.APIKey)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, requestErr(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(a.Name(), resp.StatusCode)
	}

	var pvr patentsViewResponse
	if err := json.NewDecoder(resp.Body).Decode(&pvr); err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("parsing PatentsView response: %w", err))
	}

	now := time.Now().UTC()
	results := make([]types.RawResult, 0, len(pvr.Patents))
	for _, patent := range pvr.Patents {
		payload, err := json.Marshal(patent)
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

// Map converts one PatentsView record into the canonical Document shape.
func (a *PatentsView) Map(raw types.RawResult) (types.Document, error) {
	var p patentsViewPatent
	if err := json.Unmarshal(raw.Payload, &p); err != nil {
		return types.Document{}, fmt.Errorf("parsing PatentsView payload: %w", err)
	}
	if p.PatentID == "" || p.PatentTitle == "" {
		return types.Document{}, fmt.Errorf("PatentsView record missing patent_id or title")
	}

	doc := types.Document{
		Title:       p.PatentTitle,
		Abstract:    p.PatentAbstract,
		Identifiers: []string{"US" + p.PatentID},
	}
	for _, as := range p.Assignees {
		if as.Organization != "" {
			doc.Assignees = append(doc.Assignees, as.Organization)
		}
	}
	for _, inv := range p.Inventors {
		if inv.InventorNameLast != "" {
			doc.Authors = append(doc.Authors, inv.InventorNameLast)
		}
	}
	for _, c := range p.CPC {
		if c.GroupID != "" {
			doc.Classifications = append(doc.Classifications, c.GroupID)
		}
	}
	for _, cit := range p.Citations {
		if cit.CitedPatentID != "" {
			doc.CitationRefs = append(doc.CitationRefs, "US"+cit.CitedPatentID)
		}
	}
	if p.PatentDate != "" {
		if t, parseErr := time.Parse("2006-01-02", p.PatentDate); parseErr == nil {
			doc.PublicationDate = t
		}
	}

	// Fields outside the canonical schema go to the extension bag.
	doc.Extensions = map[string]string{}
	if p.PatentType != "" {
		doc.Extensions["patentsview.patent_type"] = p.PatentType
	}
	if p.NumClaims > 0 {
		doc.Extensions["patentsview.num_claims"] = fmt.Sprintf("%d", p.NumClaims)
	}
	return doc, nil
}

// renderPatentsViewQuery walks the plan's boolean expression tree and
// produces the PatentsView JSON query syntax, appending date-range
// conditions from the plan filters.
func renderPatentsViewQuery(plan types.SearchPlan) string {
	var conditions []string
	if expr := renderPatentsViewExpr(plan.Expr); expr != "" {
		conditions = append(conditions, expr)
	}
	if !plan.DateFrom.IsZero() {
		conditions = append(conditions,
			fmt.Sprintf(`{"_gte":{"patent_date":"%s"}}`, plan.DateFrom.Format("2006-01-02")))
	}
	if !plan.DateTo.IsZero() {
		conditions = append(conditions,
			fmt.Sprintf(`{"_lte":{"patent_date":"%s"}}`, plan.DateTo.Format("2006-01-02")))
	}

	switch len(conditions) {
	case 0:
		return ""
	case 1:
		return conditions[0]
	default:
		return fmt.Sprintf(`{"_and":[%s]}`, strings.Join(conditions, ","))
	}
}

// renderPatentsViewExpr renders one expression node.
func renderPatentsViewExpr(e *types.BoolExpr) string {
	if e == nil {
		return ""
	}
	switch e.Op {
	case types.OpTerm:
		term := escapeJSON(e.Term)
		switch e.Field {
		case types.FieldClassification:
			return fmt.Sprintf(`{"_begins":{"cpc_current.cpc_group_id":"%s"}}`, term)
		case types.FieldOrganization:
			return fmt.Sprintf(`{"_contains":{"assignees.assignee_organization":"%s"}}`, term)
		default:
			return fmt.Sprintf(`{"_or":[{"_text_any":{"patent_title":"%s"}},{"_text_any":{"patent_abstract":"%s"}}]}`, term, term)
		}
	case types.OpAnd, types.OpOr:
		var parts []string
		for _, c := range e.Children {
			if p := renderPatentsViewExpr(c); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		if len(parts) == 1 {
			return parts[0]
		}
		op := "_and"
		if e.Op == types.OpOr {
			op = "_or"
		}
		return fmt.Sprintf(`{"%s":[%s]}`, op, strings.Join(parts, ","))
	default:
		return ""
	}
}

// escapeJSON escapes a string for safe inclusion in a JSON string value.
func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_patent_count"`
}

type patentsViewPatent struct {
	PatentID       string                `json:"patent_id"`
	PatentTitle    string                `json:"patent_title"`
	PatentAbstract string                `json:"patent_abstract"`
	PatentDate     string                `json:"patent_date"`
	PatentType     string                `json:"patent_type"`
	NumClaims      int                   `json:"patent_num_claims"`
	Inventors      []patentsViewInventor `json:"inventors"`
	Assignees      []patentsViewAssignee `json:"assignees"`
	CPC            []patentsViewCPC      `json:"cpc_current"`
	Citations      []patentsViewCitation `json:"us_patent_citations"`
}

type patentsViewInventor struct {
	InventorNameLast string `json:"inventor_name_last"`
}

type patentsViewAssignee struct {
	Organization string `json:"assignee_organization"`
}

type patentsViewCPC struct {
	GroupID string `json:"cpc_group_id"`
}

type patentsViewCitation struct {
	CitedPatentID string `json:"cited_patent_id"`
}
