package monitor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/observe"
	"github.com/jonwraymond/provwatch/probe"
	"github.com/jonwraymond/provwatch/store"
)

// Trigger says who asked for a check. It selects the client gate.
type Trigger int

const (
	// TriggerAutomatic is a scheduled or bulk check.
	TriggerAutomatic Trigger = iota
	// TriggerManual is an explicit single-provider check.
	TriggerManual
)

func (t Trigger) String() string {
	if t == TriggerManual {
		return "manual"
	}
	return "automatic"
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMiddleware instruments probes, denials and transitions.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *Orchestrator) { o.mw = mw }
}

// WithLogger sets the logger. Without WithMiddleware, probe telemetry is
// logged through it too.
func WithLogger(l observe.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock replaces time.Now for gate and status timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs health checks for a fixed set of providers.
//
// Contract:
//   - Concurrency: safe for concurrent use. Different providers probe in
//     parallel; a check of a provider already being probed returns the
//     pre-probe status immediately.
//   - Errors: only *health.ConfigurationError is returned.
type Orchestrator struct {
	config  Config
	probers map[string]probe.Prober
	runner  *probe.Runner
	store   *store.Store
	mw      *observe.Middleware
	logger  observe.Logger
	now     func() time.Time
	newID   func() string

	mu sync.Mutex
	st *state
}

// New creates an Orchestrator over the given probe capabilities. Providers
// are not tracked until Initialize.
func New(cfg Config, probers map[string]probe.Prober, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, health.NewConfigurationError("new", "", err)
	}
	cfg.applyDefaults()

	o := &Orchestrator{
		config:  cfg,
		probers: make(map[string]probe.Prober, len(probers)),
		now:     time.Now,
		newID:   uuid.NewString,
		store:   store.New(store.Config{Debounce: cfg.DebounceInterval}),
	}
	for id, p := range probers {
		o.probers[id] = p
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = observe.NopLogger()
	}
	if o.mw == nil {
		o.mw = observe.NewMiddleware(nil, nil, o.logger)
	}

	o.runner = probe.NewRunner(probe.RunnerConfig{
		Timeout:    cfg.Timeout,
		Attempts:   cfg.ProbeAttempts,
		RetryDelay: cfg.RetryDelay,
		RetryIf: func(out probe.Outcome) bool {
			return health.IsInfrastructure(health.Classify(out.ErrorText, out.HTTPStatus))
		},
	})
	o.st = newState(cfg, 0, o.lastChecked)
	return o, nil
}

func (o *Orchestrator) lastChecked(id string) (time.Time, bool) {
	st, ok := o.store.Get(id)
	if !ok || st.LastChecked == nil {
		return time.Time{}, false
	}
	return *st.LastChecked, true
}

// Initialize starts tracking ids, each optimistically online. It fails
// when already initialized, when ids is empty or repeats an id, and when
// an id has no probe capability.
func (o *Orchestrator) Initialize(ids []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.validateIDs(ids); err != nil {
		o.logger.Error(context.Background(), "initialize rejected", observe.F("error", err))
		return err
	}

	st := newState(o.config, o.st.generation+1, o.lastChecked)
	for _, id := range ids {
		st.known[id] = struct{}{}
	}
	st.initialized = true
	o.st = st
	o.store.Seed(ids)

	o.logger.Info(context.Background(), "monitor initialized",
		observe.F("providers", len(ids)),
		observe.F("automatic_gates", strings.Join(st.automaticStack.Gates(), ",")),
		observe.F("manual_gates", strings.Join(st.manualStack.Gates(), ",")))
	return nil
}

func (o *Orchestrator) validateIDs(ids []string) error {
	const op = "initialize"
	if o.st.initialized {
		return health.NewConfigurationError(op, "", health.ErrAlreadyInitialized)
	}
	if len(ids) == 0 {
		return health.NewConfigurationError(op, "", health.ErrNoProviders)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return health.NewConfigurationError(op, id, health.ErrDuplicateProvider)
		}
		seen[id] = struct{}{}
		if _, ok := o.probers[id]; !ok {
			return health.NewConfigurationError(op, id, health.ErrUnknownProvider)
		}
	}
	return nil
}

// checkLocked validates that id can be used by op.
func (o *Orchestrator) checkLocked(op, id string) error {
	if !o.st.initialized {
		return health.NewConfigurationError(op, id, health.ErrNotInitialized)
	}
	if _, ok := o.st.known[id]; !ok {
		return health.NewConfigurationError(op, id, health.ErrUnknownProvider)
	}
	return nil
}

// CheckOne runs the gate stack for id and, if every gate allows, probes
// the provider and records the outcome. A denied check returns the cached
// status with the denial reason in LastError; nothing is recorded.
//
// A ctx already done returns its error before any gate is consulted. Once
// a probe starts it is bounded by Timeout only, so a caller going away
// mid-check cannot be recorded as a provider failure.
func (o *Orchestrator) CheckOne(ctx context.Context, id string, trigger Trigger) (health.Status, error) {
	meta := observe.ProviderMeta{Provider: id, Trigger: trigger.String()}
	if err := ctx.Err(); err != nil {
		return health.Status{}, err
	}

	o.mu.Lock()
	if err := o.checkLocked("check", id); err != nil {
		o.mu.Unlock()
		return health.Status{}, err
	}
	if pending, ok := o.st.inflight[id]; ok {
		o.mu.Unlock()
		return pending.Clone(), nil
	}

	current, _ := o.store.Get(id)
	if d := o.st.stack(trigger).Admit(id, o.now()); !d.Allowed {
		o.mu.Unlock()
		o.mw.Denied(ctx, meta, d.Gate, d.RetryAt, d.Err())
		current.LastError = d.Reason
		return current, nil
	}

	o.st.inflight[id] = current.Clone()
	generation := o.st.generation
	_, _ = o.store.Apply(id, store.Update{State: health.StateChecking})
	o.mu.Unlock()

	meta.ProbeID = o.newID()
	res := o.probe(context.WithoutCancel(ctx), meta)

	return o.record(ctx, meta, generation, current, res), nil
}

// probeResult is a probe outcome with its failure classified.
type probeResult struct {
	probe.Outcome
	category *health.Category
	state    health.State
}

// probe runs the provider's probe through the middleware and resolves the
// outcome.
func (o *Orchestrator) probe(ctx context.Context, meta observe.ProviderMeta) probeResult {
	res := probeResult{state: health.StateOnline}

	o.mw.Wrap(func(ctx context.Context, meta observe.ProviderMeta) observe.ProbeResult {
		res.Outcome = o.runner.Run(ctx, o.probers[meta.Provider])
		if res.Success {
			return observe.ProbeResult{State: res.state.String()}
		}

		c := health.Classify(res.ErrorText, res.HTTPStatus)
		res.category = &c
		res.state = health.Resolve(c)
		return observe.ProbeResult{
			State:    res.state.String(),
			Category: c.String(),
			Err:      errors.New(res.ErrorText),
		}
	})(ctx, meta)

	return res
}

// record applies a probe result, unless Initialize or Reset ran while
// the probe was in flight.
func (o *Orchestrator) record(ctx context.Context, meta observe.ProviderMeta, generation uint64, before health.Status, res probeResult) health.Status {
	o.mu.Lock()
	if o.st.generation != generation {
		o.mu.Unlock()
		o.logger.WithProvider(meta).Warn(ctx, "probe result discarded after reset")
		before.LastError = "check discarded: monitor was reset"
		return before
	}
	delete(o.st.inflight, meta.Provider)

	checkedAt := o.now()
	update := store.Update{
		State:        res.state,
		CheckedAt:    checkedAt,
		Error:        res.ErrorText,
		Category:     res.category,
		ResponseTime: res.Elapsed,
	}

	retryAfter := res.RetryAfter
	if res.state == health.StateRateLimited && retryAfter <= 0 {
		retryAfter = o.config.DefaultRetryAfter
	}
	switch {
	case res.state == health.StateOnline:
		o.st.backoff.Clear(meta.Provider)
	case retryAfter > 0:
		o.st.backoff.Set(meta.Provider, checkedAt.Add(retryAfter))
		update.RetryAfter = retryAfter
	}

	after, err := o.store.Apply(meta.Provider, update)
	o.mu.Unlock()
	if err != nil {
		// The store only fails after Close.
		return before
	}

	o.mw.Transition(ctx, meta, before.State.String(), after.State.String())
	return after
}

// CheckAll checks ids concurrently, or every provider when ids is empty.
// Providers already being probed contribute their pre-probe status. All
// ids are validated before any probe starts.
func (o *Orchestrator) CheckAll(ctx context.Context, ids []string, trigger Trigger) (map[string]health.Status, error) {
	o.mu.Lock()
	if len(ids) == 0 {
		if !o.st.initialized {
			o.mu.Unlock()
			return nil, health.NewConfigurationError("check_all", "", health.ErrNotInitialized)
		}
		ids = o.providersLocked()
	}
	for _, id := range ids {
		if err := o.checkLocked("check_all", id); err != nil {
			o.mu.Unlock()
			return nil, err
		}
	}
	o.mu.Unlock()

	var (
		mu      sync.Mutex
		results = make(map[string]health.Status, len(ids))
		g       errgroup.Group
	)
	if o.config.MaxConcurrentProbes > 0 {
		g.SetLimit(o.config.MaxConcurrentProbes)
	}

	for _, id := range ids {
		g.Go(func() error {
			st, err := o.CheckOne(ctx, id, trigger)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = st
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Query returns the provider's current status.
func (o *Orchestrator) Query(id string) (health.Status, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkLocked("query", id); err != nil {
		return health.Status{}, err
	}
	st, _ := o.store.Get(id)
	return st, nil
}

func (o *Orchestrator) threshold(threshold int) int {
	if threshold <= 0 {
		return o.config.MaxConsecutiveFailures
	}
	return threshold
}

// IsDown reports whether the provider is offline with at least threshold
// consecutive failures. A threshold <= 0 uses MaxConsecutiveFailures.
func (o *Orchestrator) IsDown(id string, threshold int) (bool, error) {
	st, err := o.Query(id)
	if err != nil {
		return false, err
	}
	return st.IsDown(o.threshold(threshold)), nil
}

// ListDown returns the providers IsDown reports, sorted. A threshold <= 0
// uses MaxConsecutiveFailures.
func (o *Orchestrator) ListDown(threshold int) []string {
	threshold = o.threshold(threshold)

	o.mu.Lock()
	defer o.mu.Unlock()

	down := []string{}
	for id, st := range o.store.Snapshot() {
		if _, ok := o.st.known[id]; ok && st.IsDown(threshold) {
			down = append(down, id)
		}
	}
	sort.Strings(down)
	return down
}

// Providers returns the tracked providers, sorted.
func (o *Orchestrator) Providers() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.providersLocked()
}

func (o *Orchestrator) providersLocked() []string {
	if !o.st.initialized {
		return []string{}
	}
	return o.store.IDs()
}

// Reset forgets every provider, window, backoff and in-flight check.
// Initialize may be called again afterwards. Probes still running finish
// but their results are discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.st = newState(o.config, o.st.generation+1, o.lastChecked)
	o.store.Clear()
	o.logger.Info(context.Background(), "monitor reset")
}

// Subscribe returns debounced status changes. See store.Store.Subscribe.
func (o *Orchestrator) Subscribe() (<-chan store.Change, func()) {
	return o.store.Subscribe()
}

// Close flushes pending notifications and closes subscriptions.
func (o *Orchestrator) Close() {
	o.store.Close()
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.config
}

var _ health.Source = (*Orchestrator)(nil)
