// Package health defines the status model for monitored AI providers.
//
// It holds the pieces every other package agrees on: the normalized State
// of a provider, the Category of a failed probe, the Status record kept per
// provider, and the pure functions that turn failure text into a state.
//
// # Classification
//
// Classify inspects failure text (and an optional HTTP status code) and
// returns the first matching Category in priority order: network, timeout,
// auth, rate limit, credit, server error, unknown. Resolve then maps the
// category to a State:
//
//	cat := health.Classify("429 Too Many Requests", 429)
//	state := health.Resolve(cat) // health.StateRateLimited
//
// Only infrastructure categories resolve to StateOffline. A provider that
// is rate limited, out of credit or missing credentials is still reachable,
// and never counts toward the circuit-breaker threshold.
//
// # HTTP Endpoints
//
// The package provides HTTP handlers over any Source, typically a
// monitor.Orchestrator:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, orchestrator)
package health
