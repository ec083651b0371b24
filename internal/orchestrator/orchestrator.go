// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator executes a search plan against all compatible
// provider adapters concurrently, with a global in-flight cap, per-adapter
// timeouts and rate limits, retry with backoff and jitter, and circuit
// breaking. Partial success is a normal outcome: adapter failures become
// status metadata, never run failures.
//
// See docs/ARCHITECTURE § Source Orchestration.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/aero-research/internal/httputil"
	"github.com/pdiddy/aero-research/pkg/types"
)

// Adapter is the subset of the provider adapter surface the orchestrator
// drives. provider.Adapter satisfies it.
type Adapter interface {
	Name() string
	Capability() types.ProviderCapability
	Search(ctx context.Context, plan types.SearchPlan) ([]types.RawResult, error)
}

// Result is the outcome of one orchestration run. Results are grouped by
// adapter completion order (first adapter to finish first); ranking is a
// downstream concern.
type Result struct {
	Results        []types.RawResult
	ProviderStatus map[string]types.ProviderStatus

	// Reasons holds a human-readable failure reason per non-successful
	// adapter, so callers can render "no data found, providers X/Y
	// unavailable" instead of a generic failure.
	Reasons map[string]string
}

// Orchestrator fans a plan out to provider adapters. The rate limiters
// and the circuit breaker persist across runs; everything else is scoped
// to one Execute call.
type Orchestrator struct {
	cfg     types.OrchestratorConfig
	breaker *Breaker
	log     *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New returns an Orchestrator. A nil breaker gets a default one; a nil
// logger disables logging.
func New(cfg types.OrchestratorConfig, breaker *Breaker, log *zap.Logger) *Orchestrator {
	if breaker == nil {
		breaker = NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		breaker:  breaker,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the shared rate limiter for an adapter, built from its
// declared capability on first use.
func (o *Orchestrator) limiter(a Adapter) *rate.Limiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l, ok := o.limiters[a.Name()]; ok {
		return l
	}
	c := a.Capability()
	limit := rate.Inf
	burst := 1
	if c.RateLimit > 0 {
		limit = rate.Limit(c.RateLimit)
		if c.Burst > 0 {
			burst = c.Burst
		}
	}
	l := rate.NewLimiter(limit, burst)
	o.limiters[a.Name()] = l
	return l
}

// adapterOutcome is one adapter's contribution, sent on the collection
// channel as the adapter finishes.
type adapterOutcome struct {
	name    string
	results []types.RawResult
	status  types.ProviderStatus
	reason  string
}

// Execute runs the plan against every compatible adapter. It returns
// successfully as long as the run was not cancelled, even when every
// adapter failed: callers decide whether "no results" is a user-facing
// failure. On cancellation it returns promptly with whatever results had
// completed and a *types.CancellationError.
func (o *Orchestrator) Execute(ctx context.Context, plan types.SearchPlan, adapters []Adapter) (Result, error) {
	res := Result{
		ProviderStatus: make(map[string]types.ProviderStatus, len(adapters)),
		Reasons:        make(map[string]string),
	}

	var runnable []Adapter
	for _, a := range adapters {
		switch {
		case !a.Capability().Compatible(plan):
			res.ProviderStatus[a.Name()] = types.StatusSkipped
		case !o.breaker.Allow(a.Name()):
			res.ProviderStatus[a.Name()] = types.StatusCircuitOpen
			res.Reasons[a.Name()] = "circuit open after repeated failures"
			o.log.Warn("provider skipped, circuit open", zap.String("provider", a.Name()))
		default:
			runnable = append(runnable, a)
		}
	}

	if len(runnable) == 0 {
		return res, nil
	}

	// Global in-flight cap, not per adapter.
	sem := make(chan struct{}, o.cfg.MaxInFlight)
	ch := make(chan adapterOutcome, len(runnable))
	var wg sync.WaitGroup

	for _, a := range runnable {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				ch <- adapterOutcome{name: a.Name(), status: types.StatusCancelled, reason: ctx.Err().Error()}
				return
			}
			ch <- o.callAdapter(ctx, a, plan)
		}(a)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for out := range ch {
		res.ProviderStatus[out.name] = out.status
		if out.reason != "" {
			res.Reasons[out.name] = out.reason
		}
		// Completion order grouping: each adapter's batch appends as a
		// unit when it finishes.
		res.Results = append(res.Results, out.results...)
	}

	if err := ctx.Err(); err != nil {
		return res, &types.CancellationError{Err: err}
	}
	return res, nil
}

// callAdapter runs one adapter with rate limiting, a per-call timeout,
// and retry on transient failures.
func (o *Orchestrator) callAdapter(ctx context.Context, a Adapter, plan types.SearchPlan) adapterOutcome {
	name := a.Name()
	log := o.log.With(zap.String("provider", name))

	if err := o.limiter(a).Wait(ctx); err != nil {
		return adapterOutcome{name: name, status: types.StatusCancelled, reason: err.Error()}
	}

	for attempt := 0; ; attempt++ {
		start := time.Now()
		actx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
		results, err := a.Search(actx, plan)
		cancel()

		if err == nil {
			o.breaker.Success(name)
			log.Debug("provider completed",
				zap.Int("results", len(results)),
				zap.Duration("elapsed", time.Since(start)))
			return adapterOutcome{name: name, results: results, status: types.StatusSuccess}
		}

		// The caller cancelled the whole run; that is not a provider failure.
		if ctx.Err() != nil {
			return adapterOutcome{name: name, status: types.StatusCancelled, reason: ctx.Err().Error()}
		}

		// Per-adapter timeout: degraded, zero results, no retry. The
		// time allotted to this adapter is already spent.
		if errors.Is(err, context.DeadlineExceeded) {
			o.breaker.Failure(name)
			log.Warn("provider timed out", zap.Duration("timeout", o.cfg.AdapterTimeout))
			return adapterOutcome{name: name, status: types.StatusDegraded, reason: "timed out"}
		}

		var perr *types.ProviderError
		transient := errors.As(err, &perr) && perr.Transient

		if transient && attempt < o.cfg.MaxRetries {
			backoff := httputil.Backoff(o.cfg.RetryBaseDelay, attempt)
			log.Warn("provider failed, retrying",
				zap.Error(err),
				zap.Duration("backoff", backoff),
				zap.Int("attempt", attempt+1))
			select {
			case <-ctx.Done():
				return adapterOutcome{name: name, status: types.StatusCancelled, reason: ctx.Err().Error()}
			case <-time.After(backoff):
			}
			continue
		}

		o.breaker.Failure(name)
		log.Warn("provider failed", zap.Error(err), zap.Bool("transient", transient))
		return adapterOutcome{name: name, status: types.StatusFailed, reason: err.Error()}
	}
}
