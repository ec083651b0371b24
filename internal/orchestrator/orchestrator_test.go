// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/aero-research/pkg/types"
)

// fakeAdapter is a scriptable in-memory Adapter.
type fakeAdapter struct {
	name    string
	cap     types.ProviderCapability
	results []types.RawResult
	errs    []error // consumed per call; nil means success
	delay   time.Duration
	calls   int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Capability() types.ProviderCapability { return f.cap }

func (f *fakeAdapter) Search(ctx context.Context, _ types.SearchPlan) ([]types.RawResult, error) {
	call := int(atomic.AddInt32(&f.calls, 1)) - 1
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	return f.results, nil
}

func termCap() types.ProviderCapability {
	return types.ProviderCapability{TermSearch: true}
}

func testConfig() types.OrchestratorConfig {
	return types.OrchestratorConfig{
		MaxInFlight:      4,
		AdapterTimeout:   50 * time.Millisecond,
		MaxRetries:       2,
		RetryBaseDelay:   time.Millisecond,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	}
}

func rawResults(provider string, n int) []types.RawResult {
	out := make([]types.RawResult, n)
	for i := range out {
		out[i] = types.RawResult{Provider: provider}
	}
	return out
}

func TestExecutePartialFailure(t *testing.T) {
	good := &fakeAdapter{name: "good", cap: termCap(), results: rawResults("good", 3)}
	slow := &fakeAdapter{name: "slow", cap: termCap(), delay: time.Second}

	o := New(testConfig(), nil, nil)
	res, err := o.Execute(context.Background(), types.SearchPlan{Terms: []string{"x"}}, []Adapter{good, slow})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.ProviderStatus["good"] != types.StatusSuccess {
		t.Errorf("good status = %s", res.ProviderStatus["good"])
	}
	if res.ProviderStatus["slow"] != types.StatusDegraded {
		t.Errorf("slow status = %s, want degraded on timeout", res.ProviderStatus["slow"])
	}
	if len(res.Results) != 3 {
		t.Errorf("got %d results, want 3 from the healthy adapter", len(res.Results))
	}
	if res.Reasons["slow"] == "" {
		t.Error("degraded adapter has no reason")
	}
}

func TestExecuteRetriesTransient(t *testing.T) {
	transient := &types.ProviderError{Provider: "flaky", Transient: true, Err: errors.New("HTTP 503")}
	flaky := &fakeAdapter{
		name:    "flaky",
		cap:     termCap(),
		errs:    []error{transient, transient, nil},
		results: rawResults("flaky", 1),
	}

	o := New(testConfig(), nil, nil)
	res, err := o.Execute(context.Background(), types.SearchPlan{Terms: []string{"x"}}, []Adapter{flaky})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ProviderStatus["flaky"] != types.StatusSuccess {
		t.Fatalf("status = %s, want success after retries", res.ProviderStatus["flaky"])
	}
	if got := atomic.LoadInt32(&flaky.calls); got != 3 {
		t.Errorf("adapter called %d times, want 3", got)
	}
}

func TestExecuteNoRetryOnPermanent(t *testing.T) {
	permanent := &types.ProviderError{Provider: "broken", Transient: false, Err: errors.New("HTTP 400")}
	broken := &fakeAdapter{name: "broken", cap: termCap(), errs: []error{permanent, permanent, permanent}}

	o := New(testConfig(), nil, nil)
	res, err := o.Execute(context.Background(), types.SearchPlan{Terms: []string{"x"}}, []Adapter{broken})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ProviderStatus["broken"] != types.StatusFailed {
		t.Errorf("status = %s, want failed", res.ProviderStatus["broken"])
	}
	if got := atomic.LoadInt32(&broken.calls); got != 1 {
		t.Errorf("permanent failure called %d times, want 1", got)
	}
}

func TestExecuteSkipsIncompatible(t *testing.T) {
	citationOnly := &fakeAdapter{
		name: "cites",
		cap:  types.ProviderCapability{CitationOnly: true, CitationData: true},
	}

	o := New(testConfig(), nil, nil)
	res, err := o.Execute(context.Background(),
		types.SearchPlan{Terms: []string{"x"}, WantCitations: false}, []Adapter{citationOnly})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ProviderStatus["cites"] != types.StatusSkipped {
		t.Errorf("status = %s, want skipped", res.ProviderStatus["cites"])
	}
	if atomic.LoadInt32(&citationOnly.calls) != 0 {
		t.Error("incompatible adapter was called")
	}
}

func TestExecuteCancellation(t *testing.T) {
	fast := &fakeAdapter{name: "fast", cap: termCap(), results: rawResults("fast", 2)}
	slow := &fakeAdapter{name: "slow", cap: termCap(), delay: time.Second}

	cfg := testConfig()
	cfg.AdapterTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	o := New(cfg, nil, nil)
	res, err := o.Execute(ctx, types.SearchPlan{Terms: []string{"x"}}, []Adapter{fast, slow})

	var cerr *types.CancellationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CancellationError, got %v", err)
	}
	if res.ProviderStatus["slow"] != types.StatusCancelled {
		t.Errorf("slow status = %s, want cancelled", res.ProviderStatus["slow"])
	}
	// The fast adapter's completed results survive cancellation.
	if len(res.Results) != 2 {
		t.Errorf("got %d results, want 2 completed before cancel", len(res.Results))
	}
}

func TestExecuteCircuitOpens(t *testing.T) {
	permanent := &types.ProviderError{Provider: "down", Transient: false, Err: errors.New("HTTP 500 maintenance")}
	down := &fakeAdapter{
		name: "down",
		cap:  termCap(),
		errs: []error{permanent, permanent, permanent, permanent},
	}

	o := New(testConfig(), nil, nil)
	plan := types.SearchPlan{Terms: []string{"x"}}

	// Threshold is 3 consecutive failures, one per run.
	for i := 0; i < 3; i++ {
		res, err := o.Execute(context.Background(), plan, []Adapter{down})
		if err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
		if res.ProviderStatus["down"] != types.StatusFailed {
			t.Fatalf("run %d status = %s, want failed", i, res.ProviderStatus["down"])
		}
	}

	res, err := o.Execute(context.Background(), plan, []Adapter{down})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ProviderStatus["down"] != types.StatusCircuitOpen {
		t.Errorf("status = %s, want circuit_open after repeated failures", res.ProviderStatus["down"])
	}
	if got := atomic.LoadInt32(&down.calls); got != 3 {
		t.Errorf("adapter called %d times, want 3 (skipped once open)", got)
	}
}

func TestBreakerCooldownCloses(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }

	b.Failure("p")
	b.Failure("p")
	if b.Allow("p") {
		t.Fatal("circuit should be open at threshold")
	}

	now = now.Add(2 * time.Minute)
	if !b.Allow("p") {
		t.Fatal("circuit should close after cooldown")
	}

	// One failure after reopening does not trip the breaker again.
	b.Failure("p")
	if !b.Allow("p") {
		t.Error("single failure after cooldown reopened the circuit")
	}
}

func TestBreakerSuccessResets(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	b.Failure("p")
	b.Failure("p")
	b.Success("p")
	b.Failure("p")
	b.Failure("p")
	if !b.Allow("p") {
		t.Error("success did not reset the consecutive failure count")
	}
}
