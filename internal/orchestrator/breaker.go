// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"sync"
	"time"
)

// Breaker tracks consecutive provider failures across runs and trips a
// per-provider circuit after a threshold, so one broken provider does not
// stall every query. It is the only state shared across concurrent runs;
// a single Breaker is constructed at process start and injected into the
// orchestrator. Safe for concurrent use.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	// now is the clock; tests substitute it to step time.
	now func() time.Time

	mu    sync.Mutex
	state map[string]*breakerEntry
}

type breakerEntry struct {
	consecutive int
	openUntil   time.Time
}

// NewBreaker returns a Breaker that opens a provider's circuit after
// threshold consecutive failures, skipping it for the cooldown period.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     make(map[string]*breakerEntry),
	}
}

// Allow reports whether the provider may be called. An expired cooldown
// closes the circuit again; the failure count restarts from zero.
func (b *Breaker) Allow(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.state[provider]
	if !ok {
		return true
	}
	if e.openUntil.IsZero() {
		return true
	}
	if b.now().After(e.openUntil) {
		e.openUntil = time.Time{}
		return true
	}
	return false
}

// Success resets the provider's consecutive failure count.
func (b *Breaker) Success(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.state, provider)
}

// Failure records one failure; the circuit opens when the consecutive
// count reaches the threshold.
func (b *Breaker) Failure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.state[provider]
	if !ok {
		e = &breakerEntry{}
		b.state[provider] = e
	}
	e.consecutive++
	if e.consecutive >= b.threshold {
		e.openUntil = b.now().Add(b.cooldown)
		e.consecutive = 0
	}
}
