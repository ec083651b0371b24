// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider wraps each external data source (patents, preprints,
// journal index, agency repository) behind a uniform adapter interface.
// Adding a data source means implementing Adapter and registering it at
// process start with a static capability descriptor.
//
// See docs/ARCHITECTURE § Provider Adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"

	"github.com/pdiddy/aero-research/pkg/types"
)

// Adapter is the uniform capability wrapper around one external data
// source. Search executes a plan against the source; Map is the adapter's
// canonical mapping from its own raw payload to the Document schema
// (one mapper per adapter, no central type switch).
type Adapter interface {
	Name() string
	Capability() types.ProviderCapability
	Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error)
	Map(raw types.RawResult) (types.Document, error)
}

// Registry holds the adapters registered for this process.
type Registry struct {
	byName map[string]Adapter
}

// NewRegistry builds a registry from the given adapters. Duplicate names
// are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byName: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.byName[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate provider adapter %q", a.Name())
		}
		r.byName[a.Name()] = a
	}
	return r, nil
}

// All returns the registered adapters sorted by name.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Get returns the adapter with the given name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// transientErr wraps err as a retryable provider failure.
func transientErr(provider string, err error) error {
	return &types.ProviderError{Provider: provider, Transient: true, Err: err}
}

// permanentErr wraps err as a non-retryable provider failure.
func permanentErr(provider string, err error) error {
	return &types.ProviderError{Provider: provider, Transient: false, Err: err}
}

// statusErr classifies an unexpected HTTP status. Rate limits and server
// errors are transient; client errors (rejected query, bad credentials)
// are permanent.
func statusErr(provider string, code int) error {
	err := fmt.Errorf("%s API returned HTTP %d", provider, code)
	if code == http.StatusTooManyRequests || code >= 500 {
		return transientErr(provider, err)
	}
	return permanentErr(provider, err)
}

// requestErr classifies a failed HTTP round trip. Network-level errors
// are transient; context cancellation passes through untouched so the
// orchestrator can tell cancellation apart from failure.
func requestErr(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return transientErr(provider, err)
	}
	return transientErr(provider, fmt.Errorf("%s API request: %w", provider, err))
}
