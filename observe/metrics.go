package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records probe and gate metrics for providers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordProbe records a completed probe, its resolved state and
	// duration. A non-nil err counts as a probe error.
	RecordProbe(ctx context.Context, meta ProviderMeta, state string, duration time.Duration, err error)

	// RecordDenial records a check skipped by the named gate.
	RecordDenial(ctx context.Context, meta ProviderMeta, gate string)

	// RecordTransition records a state change.
	RecordTransition(ctx context.Context, meta ProviderMeta, from, to string)
}

type metricsImpl struct {
	totalCount      metric.Int64Counter
	errorCount      metric.Int64Counter
	durationHist    metric.Float64Histogram
	deniedCount     metric.Int64Counter
	transitionCount metric.Int64Counter
}

// NewMetrics creates Metrics backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"provider.probe.total",
		metric.WithDescription("Total number of provider probes"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"provider.probe.errors",
		metric.WithDescription("Total number of failed provider probes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"provider.probe.duration_ms",
		metric.WithDescription("Provider probe duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	deniedCount, err := meter.Int64Counter(
		"provider.gate.denied",
		metric.WithDescription("Checks skipped by a rate limit gate"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	transitionCount, err := meter.Int64Counter(
		"provider.state.transitions",
		metric.WithDescription("Provider state changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:      totalCount,
		errorCount:      errorCount,
		durationHist:    durationHist,
		deniedCount:     deniedCount,
		transitionCount: transitionCount,
	}, nil
}

func providerAttrs(meta ProviderMeta, extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := []attribute.KeyValue{attribute.String("provider.id", meta.Provider)}
	if meta.Trigger != "" {
		attrs = append(attrs, attribute.String("provider.trigger", meta.Trigger))
	}
	return metric.WithAttributes(append(attrs, extra...)...)
}

func (m *metricsImpl) RecordProbe(ctx context.Context, meta ProviderMeta, state string, duration time.Duration, err error) {
	opt := providerAttrs(meta, attribute.String("provider.state", state))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordDenial(ctx context.Context, meta ProviderMeta, gate string) {
	m.deniedCount.Add(ctx, 1, providerAttrs(meta, attribute.String("gate", gate)))
}

func (m *metricsImpl) RecordTransition(ctx context.Context, meta ProviderMeta, from, to string) {
	m.transitionCount.Add(ctx, 1, providerAttrs(meta,
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

type noopMetrics struct{}

func (noopMetrics) RecordProbe(context.Context, ProviderMeta, string, time.Duration, error) {}
func (noopMetrics) RecordDenial(context.Context, ProviderMeta, string)                      {}
func (noopMetrics) RecordTransition(context.Context, ProviderMeta, string, string)          {}
