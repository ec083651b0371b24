// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/aero-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// subsystemCategories maps plan subsystem tags to arXiv categories.
var subsystemCategories = map[string]string{
	"propulsion":   "physics.flu-dyn",
	"materials":    "cond-mat.mtrl-sci",
	"aerodynamics": "physics.flu-dyn",
	"structures":   "physics.app-ph",
	"avionics":     "eess.SP",
}

// Arxiv is the preprints provider adapter.
type Arxiv struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the adapter identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Capability describes what arXiv supports. Classification filtering maps
// subsystem tags to arXiv categories rather than IPC codes; citation data
// is not available from the API.
func (a *Arxiv) Capability() types.ProviderCapability {
	return types.ProviderCapability{
		TermSearch:           true,
		ClassificationFilter: true,
		DateFilter:           true,
		CitationData:         false,
		RateLimit:            0.33, // one request per ~3s, per arXiv guidance
		Burst:                1,
		QualityRank:          2,
	}
}

// Search queries the arXiv API and returns one RawResult per entry.
func (a *Arxiv) Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error) {
	q := renderArxivQuery(plan)
	if q == "" {
		return nil, permanentErr(a.Name(), fmt.Errorf("plan renders to an empty arXiv query"))
	}

	maxResults := a.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, maxResults)

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

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("parsing arXiv response: %w", err))
	}

	now := time.Now().UTC()
	results := make([]types.RawResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		payload, err := json.Marshal(entry)
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

// Map converts one arXiv Atom entry into the canonical Document shape.
func (a *Arxiv) Map(raw types.RawResult) (types.Document, error) {
	var entry arxivEntry
	if err := json.Unmarshal(raw.Payload, &entry); err != nil {
		return types.Document{}, fmt.Errorf("parsing arXiv payload: %w", err)
	}

	arxivID := extractArxivID(entry.ID)
	if arxivID == "" {
		return types.Document{}, fmt.Errorf("arXiv entry %q has no extractable ID", entry.ID)
	}
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return types.Document{}, fmt.Errorf("arXiv entry %s has no title", arxivID)
	}

	doc := types.Document{
		Title:       title,
		Abstract:    strings.TrimSpace(entry.Summary),
		Identifiers: []string{arxivID},
	}
	for _, au := range entry.Authors {
		if name := strings.TrimSpace(au.Name); name != "" {
			doc.Authors = append(doc.Authors, name)
		}
	}
	if entry.Primary.Term != "" {
		doc.Classifications = append(doc.Classifications, entry.Primary.Term)
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		doc.PublicationDate = t
	}
	doc.Extensions = map[string]string{
		"arxiv.abs_url": "https://arxiv.org/abs/" + arxivID,
	}
	return doc, nil
}

// renderArxivQuery builds the search_query parameter. Terms render as
// all: clauses; subsystem tags render as cat: filters ORed together and
// ANDed with the terms; a date range renders as a submittedDate window.
func renderArxivQuery(plan types.SearchPlan) string {
	var termParts []string
	for _, t := range plan.Terms {
		words := strings.Fields(t)
		termParts = append(termParts, "all:"+strings.Join(words, "+"))
	}
	if len(termParts) == 0 {
		return ""
	}
	q := strings.Join(termParts, "+OR+")
	if len(termParts) > 1 {
		q = "%28" + q + "%29"
	}

	var catParts []string
	for _, s := range plan.Subsystems {
		if cat, ok := subsystemCategories[s]; ok {
			catParts = append(catParts, "cat:"+cat)
		}
	}
	if len(catParts) > 0 {
		cats := strings.Join(catParts, "+OR+")
		if len(catParts) > 1 {
			cats = "%28" + cats + "%29"
		}
		q = q + "+AND+" + cats
	}

	if !plan.DateFrom.IsZero() || !plan.DateTo.IsZero() {
		from := "190001010000"
		if !plan.DateFrom.IsZero() {
			from = plan.DateFrom.Format("200601021504")
		}
		to := time.Now().UTC().Format("200601021504")
		if !plan.DateTo.IsZero() {
			to = plan.DateTo.Format("200601021504")
		}
		q = q + "+AND+submittedDate:%5B" + from + "+TO+" + to + "%5D"
	}
	return q
}

// arXiv Atom feed XML structures. JSON tags carry the entry through the
// RawResult payload.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id" json:"id"`
	Title     string        `xml:"title" json:"title"`
	Summary   string        `xml:"summary" json:"summary"`
	Published string        `xml:"published" json:"published"`
	Authors   []arxivAuthor `xml:"author" json:"authors"`
	Primary   arxivCategory `xml:"primary_category" json:"primary_category"`
}

type arxivAuthor struct {
	Name string `xml:"name" json:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr" json:"term"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
