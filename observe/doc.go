// Package observe provides observability primitives for provider probes.
//
// It wraps OpenTelemetry tracing and metrics and a structured JSON logger
// behind small interfaces, and a Middleware that instruments a probe
// function with all three. The monitor package is the main consumer.
//
// Metrics recorded by the Middleware:
//   - provider.probe.total       probes run, by provider and resolved state
//   - provider.probe.errors      failed probes
//   - provider.probe.duration_ms probe latency histogram
//   - provider.gate.denied       checks skipped by a rate limit gate
//   - provider.state.transitions state changes, by from and to state
//
// With the prometheus metrics exporter, Observer.MetricsHandler serves the
// metrics in the Prometheus exposition format.
package observe
