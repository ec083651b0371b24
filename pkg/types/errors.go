// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// PlanningError reports an unusable research query. It is one of the two
// error kinds that fail a whole run (the other is CancellationError).
type PlanningError struct {
	Reason string
}

func (e *PlanningError) Error() string {
	return "planning: " + e.Reason
}

// ProviderError reports a per-adapter failure. Scoped to that adapter and
// absorbed into run status metadata, never fatal to the run.
type ProviderError struct {
	Provider string

	// Transient marks failures worth retrying (network errors, rate
	// limits, server errors). Permanent failures (rejected query, auth)
	// are not retried.
	Transient bool

	Err error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s: %s failure: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NormalizationError reports a single malformed RawResult. The record is
// dropped and logged; the batch continues.
type NormalizationError struct {
	Provider  string
	RequestID string
	Err       error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize: %s record %s: %v", e.Provider, e.RequestID, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// AmbiguousRefError reports a citation reference that fuzzily matched more
// than one document above the similarity threshold. The reference resolves
// to none and the ambiguity is logged.
type AmbiguousRefError struct {
	Ref        string
	Candidates []string
}

func (e *AmbiguousRefError) Error() string {
	return fmt.Sprintf("citation ref %q matched %d candidates", e.Ref, len(e.Candidates))
}

// CancellationError reports a run aborted by the caller. Partial results
// collected before the cancellation accompany it.
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("run cancelled: %v", e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }
