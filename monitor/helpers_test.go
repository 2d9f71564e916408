package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/probe"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingProber returns the next scripted error on each call. Once the
// script runs out it keeps returning the last entry.
type countingProber struct {
	mu     sync.Mutex
	script []error
	calls  atomic.Int32
}

func succeeding() *countingProber {
	return &countingProber{}
}

func failing(errs ...error) *countingProber {
	return &countingProber{script: errs}
}

func (p *countingProber) Probe(context.Context) error {
	n := int(p.calls.Add(1))

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.script) == 0 {
		return nil
	}
	if n > len(p.script) {
		n = len(p.script)
	}
	return p.script[n-1]
}

func (p *countingProber) Calls() int {
	return int(p.calls.Load())
}

// blockingProber parks every call until released.
type blockingProber struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingProber() *blockingProber {
	return &blockingProber{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (p *blockingProber) Probe(ctx context.Context) error {
	p.calls.Add(1)
	p.started <- struct{}{}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *blockingProber) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("probe never started")
	}
}

// permissiveConfig lifts every rate limit so tests can probe freely.
func permissiveConfig() Config {
	return Config{
		Timeout:          time.Second,
		RetryDelay:       time.Millisecond,
		GlobalMaxChecks:  1000,
		ClientMaxChecks:  1000,
		ManualMaxChecks:  1000,
		ManualCooldown:   time.Nanosecond,
		DebounceInterval: 10 * time.Millisecond,
	}
}

type fixture struct {
	orch  *Orchestrator
	clock *fakeClock
}

func newFixture(t *testing.T, cfg Config, probers map[string]probe.Prober, opts ...Option) *fixture {
	t.Helper()

	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	o, err := New(cfg, probers, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(o.Close)

	ids := make([]string, 0, len(probers))
	for id := range probers {
		ids = append(ids, id)
	}
	if err := o.Initialize(ids); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return &fixture{orch: o, clock: clock}
}

func (f *fixture) check(t *testing.T, id string, trigger Trigger) health.Status {
	t.Helper()
	st, err := f.orch.CheckOne(context.Background(), id, trigger)
	if err != nil {
		t.Fatalf("CheckOne(%q) error = %v", id, err)
	}
	return st
}

func (f *fixture) query(t *testing.T, id string) health.Status {
	t.Helper()
	st, err := f.orch.Query(id)
	if err != nil {
		t.Fatalf("Query(%q) error = %v", id, err)
	}
	return st
}
