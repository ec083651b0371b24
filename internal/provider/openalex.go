// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/aero-research/internal/httputil"
	"github.com/pdiddy/aero-research/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex is the journal index provider adapter. OpenAlex is DOI-centric
// and exposes referenced works, which makes it the main citation source
// for papers.
type OpenAlex struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email      string
	UserAgent  string
	MaxResults int
}

// Name returns the adapter identifier.
func (a *OpenAlex) Name() string { return "openalex" }

// Capability describes what OpenAlex supports.
func (a *OpenAlex) Capability() types.ProviderCapability {
	return types.ProviderCapability{
		TermSearch:           true,
		ClassificationFilter: false,
		DateFilter:           true,
		CitationData:         true,
		RateLimit:            10,
		Burst:                5,
		QualityRank:          4,
	}
}

// Search queries the OpenAlex API and returns one RawResult per work.
func (a *OpenAlex) Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error) {
	searchText := strings.Join(plan.Terms, " ")
	if searchText == "" {
		return nil, permanentErr(a.Name(), fmt.Errorf("plan renders to an empty OpenAlex query"))
	}

	maxResults := a.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		"search":   {searchText},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}

	var filters []string
	if !plan.DateFrom.IsZero() {
		filters = append(filters, "from_publication_date:"+plan.DateFrom.Format("2006-01-02"))
	}
	if !plan.DateTo.IsZero() {
		filters = append(filters, "to_publication_date:"+plan.DateTo.Format("2006-01-02"))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	if a.Email != "" {
		params.Set("mailto", a.Email)
	}

	reqURL := openAlexSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, requestErr(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(a.Name(), resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, permanentErr(a.Name(), fmt.Errorf("parsing OpenAlex response: %w", err))
	}

	now := time.Now().UTC()
	results := make([]types.RawResult, 0, len(oar.Results))
	for _, work := range oar.Results {
		payload, err := json.Marshal(work)
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

// Map converts one OpenAlex work into the canonical Document shape.
func (a *OpenAlex) Map(raw types.RawResult) (types.Document, error) {
	var work openAlexWork
	if err := json.Unmarshal(raw.Payload, &work); err != nil {
		return types.Document{}, fmt.Errorf("parsing OpenAlex payload: %w", err)
	}
	if work.Title == "" {
		return types.Document{}, fmt.Errorf("OpenAlex work %q has no title", work.ID)
	}

	doc := types.Document{
		Title:    work.Title,
		Abstract: reconstructAbstract(work.AbstractInvertedIndex),
	}

	// Prefer the bare DOI as the primary identifier; always keep the
	// short OpenAlex work ID so referenced_works links resolve.
	if work.DOI != "" {
		doc.Identifiers = append(doc.Identifiers, strings.TrimPrefix(work.DOI, "https://doi.org/"))
	}
	if shortID := shortOpenAlexID(work.ID); shortID != "" {
		doc.Identifiers = append(doc.Identifiers, shortID)
	}
	if len(doc.Identifiers) == 0 {
		return types.Document{}, fmt.Errorf("OpenAlex work %q has no identifier", work.Title)
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			doc.Authors = append(doc.Authors, authorship.Author.DisplayName)
		}
		for _, inst := range authorship.Institutions {
			if inst.DisplayName != "" {
				doc.Assignees = append(doc.Assignees, inst.DisplayName)
			}
		}
	}

	for _, c := range work.Concepts {
		if c.Score >= 0.5 && c.DisplayName != "" {
			doc.Classifications = append(doc.Classifications, c.DisplayName)
		}
	}

	for _, ref := range work.ReferencedWorks {
		if shortID := shortOpenAlexID(ref); shortID != "" {
			doc.CitationRefs = append(doc.CitationRefs, shortID)
		}
	}

	if work.PublicationDate != "" {
		if t, parseErr := time.Parse("2006-01-02", work.PublicationDate); parseErr == nil {
			doc.PublicationDate = t
		}
	} else if work.PublicationYear > 0 {
		doc.PublicationDate = time.Date(work.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	doc.Extensions = map[string]string{}
	if work.OpenAccess.OAStatus != "" {
		doc.Extensions["openalex.oa_status"] = work.OpenAccess.OAStatus
	}
	if work.OpenAccess.OAURL != "" {
		doc.Extensions["openalex.oa_url"] = work.OpenAccess.OAURL
	}
	return doc, nil
}

// shortOpenAlexID strips the https://openalex.org/ prefix from a work URL,
// returning the bare work ID (e.g. "W2741809807").
func shortOpenAlexID(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	Concepts              []openAlexConcept    `json:"concepts"`
	ReferencedWorks       []string             `json:"referenced_works"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor        `json:"author"`
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}
