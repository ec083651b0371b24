// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalizer maps provider-specific raw results into the canonical
// Document schema and deduplicates across providers. Normalization is
// deterministic given raw input content: fetch timestamps and request ids
// never leak into document identity.
//
// See docs/ARCHITECTURE § Normalization.
package normalizer

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/aero-research/pkg/types"
)

// Mapper is the per-provider canonical mapping surface the normalizer
// dispatches to. provider.Adapter satisfies it.
type Mapper interface {
	Map(raw types.RawResult) (types.Document, error)
	Capability() types.ProviderCapability
}

// Normalizer converts raw results to deduplicated documents.
type Normalizer struct {
	mappers map[string]Mapper
	log     *zap.Logger
}

// New returns a Normalizer dispatching to the given mappers by provider
// name. A nil logger disables logging.
func New(mappers map[string]Mapper, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{mappers: mappers, log: log}
}

// Normalize maps every raw result and merges documents whose identity hash
// collides. Malformed records are dropped and reported as
// *types.NormalizationError values; no single bad record aborts the batch.
func (n *Normalizer) Normalize(raw []types.RawResult) ([]types.Document, []error) {
	var docs []types.Document
	var dropped []error
	index := make(map[string]int)  // document ID → position in docs
	scalarRank := make(map[string]int) // document ID → quality rank of its scalar fields

	for _, r := range raw {
		m, ok := n.mappers[r.Provider]
		if !ok {
			err := &types.NormalizationError{
				Provider:  r.Provider,
				RequestID: r.RequestID,
				Err:       fmt.Errorf("no mapper registered"),
			}
			n.log.Warn("dropping record", zap.Error(err))
			dropped = append(dropped, err)
			continue
		}

		doc, err := m.Map(r)
		if err != nil {
			nerr := &types.NormalizationError{Provider: r.Provider, RequestID: r.RequestID, Err: err}
			n.log.Warn("dropping record", zap.Error(nerr))
			dropped = append(dropped, nerr)
			continue
		}

		doc.Sources = []string{r.Provider}
		if doc.Specs == nil {
			doc.Specs = ExtractSpecs(doc.Abstract)
		}
		doc.ID = DocumentID(doc)

		rank := m.Capability().QualityRank
		if i, seen := index[doc.ID]; seen {
			merge(&docs[i], doc, rank, scalarRank)
		} else {
			index[doc.ID] = len(docs)
			scalarRank[doc.ID] = rank
			docs = append(docs, doc)
		}
	}
	return docs, dropped
}

// DocumentID computes the stable dedup key: a hash of the normalized
// title, the first assignee/author, and the publication date. Pure in the
// document's normalization-stable fields.
func DocumentID(doc types.Document) string {
	date := ""
	if !doc.PublicationDate.IsZero() {
		date = doc.PublicationDate.Format("2006-01-02")
	}
	key := NormalizeTitle(doc.Title) + "\x00" +
		strings.ToLower(strings.TrimSpace(doc.FirstParty())) + "\x00" + date
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum[:8])
}

// merge folds src into dst. Set-valued fields take the union; scalar
// fields keep the value from the provider with the highest declared
// quality rank, first-seen winning a tie.
func merge(dst *types.Document, src types.Document, srcRank int, scalarRank map[string]int) {
	srcWins := srcRank > scalarRank[dst.ID]
	if srcWins {
		scalarRank[dst.ID] = srcRank
		if src.Title != "" {
			dst.Title = src.Title
		}
		if src.Abstract != "" {
			dst.Abstract = src.Abstract
		}
		if !src.PublicationDate.IsZero() {
			dst.PublicationDate = src.PublicationDate
		}
	} else {
		// Lower-ranked provider still fills gaps.
		if dst.Title == "" {
			dst.Title = src.Title
		}
		if dst.Abstract == "" {
			dst.Abstract = src.Abstract
		}
		if dst.PublicationDate.IsZero() {
			dst.PublicationDate = src.PublicationDate
		}
	}

	dst.Sources = unionStrings(dst.Sources, src.Sources)
	dst.Identifiers = unionStrings(dst.Identifiers, src.Identifiers)
	dst.Authors = unionStrings(dst.Authors, src.Authors)
	dst.Assignees = unionStrings(dst.Assignees, src.Assignees)
	dst.Classifications = unionStrings(dst.Classifications, src.Classifications)
	dst.CitationRefs = unionStrings(dst.CitationRefs, src.CitationRefs)

	for k, v := range src.Specs {
		if _, ok := dst.Specs[k]; !ok {
			if dst.Specs == nil {
				dst.Specs = make(map[string]string)
			}
			dst.Specs[k] = v
		}
	}
	for k, v := range src.Extensions {
		if _, ok := dst.Extensions[k]; !ok {
			if dst.Extensions == nil {
				dst.Extensions = make(map[string]string)
			}
			dst.Extensions[k] = v
		}
	}
}

// unionStrings merges b into a, preserving a's order and appending new
// entries from b in order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if s != "" && !seen[s] {
			seen[s] = true
			a = append(a, s)
		}
	}
	return a
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with collapsed whitespace. Both the dedup hash and fuzzy citation
// matching rely on it.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleTokens returns the normalized title's unique tokens, sorted.
func TitleTokens(title string) []string {
	fields := strings.Fields(NormalizeTitle(title))
	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}
