package observe

import (
	"context"
	"time"
)

// ProbeResult is what a probe reports back to the Middleware.
type ProbeResult struct {
	// State is the resolved state name, e.g. "online" or "rate_limited".
	State string

	// Category is the failure category name, empty on success.
	Category string

	// Err is the probe failure, nil on success.
	Err error
}

// ProbeFunc is the signature Middleware wraps.
type ProbeFunc func(ctx context.Context, meta ProviderMeta) ProbeResult

// Middleware wraps provider probes with tracing, metrics and logging, and
// records the monitor's gate denials and state transitions.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ProbeFunc.
//   - Context: Propagates context through tracing spans.
//   - Ownership: ProbeResult values are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced
// with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a ProbeFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ProbeFunc) ProbeFunc {
	return func(ctx context.Context, meta ProviderMeta) ProbeResult {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		res := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, res.State, res.Err)
		m.metrics.RecordProbe(ctx, meta, res.State, duration, res.Err)

		fields := []Field{
			F("state", res.State),
			F("duration_ms", float64(duration.Milliseconds())),
		}
		log := m.logger.WithProvider(meta)
		if res.Err != nil {
			fields = append(fields, F("category", res.Category), F("error", res.Err))
			log.Warn(ctx, "probe failed", fields...)
		} else {
			log.Debug(ctx, "probe completed", fields...)
		}

		return res
	}
}

// Denied records a check skipped by gate. A zero retryAt is omitted from
// the log entry.
func (m *Middleware) Denied(ctx context.Context, meta ProviderMeta, gate string, retryAt time.Time, err error) {
	m.metrics.RecordDenial(ctx, meta, gate)

	fields := []Field{F("gate", gate), F("error", err)}
	if !retryAt.IsZero() {
		fields = append(fields, F("retry_at", retryAt.UTC().Format(time.RFC3339)))
	}
	m.logger.WithProvider(meta).Debug(ctx, "check skipped", fields...)
}

// Transition records a state change. Equal states are ignored.
func (m *Middleware) Transition(ctx context.Context, meta ProviderMeta, from, to string) {
	if from == to {
		return
	}
	m.metrics.RecordTransition(ctx, meta, from, to)
	m.logger.WithProvider(meta).Info(ctx, "provider state changed", F("from", from), F("to", to))
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
