package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with probe span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a provider probe.
	StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the resolved state and any error.
	EndSpan(span trace.Span, state string, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with provider metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.id", meta.Provider),
		attribute.Bool("provider.error", false),
	}
	if meta.Trigger != "" {
		attrs = append(attrs, attribute.String("provider.trigger", meta.Trigger))
	}
	if meta.ProbeID != "" {
		attrs = append(attrs, attribute.String("probe.id", meta.ProbeID))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, state string, err error) {
	if state != "" {
		span.SetAttributes(attribute.String("provider.state", state))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("provider.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
