// Package resilience provides the throttling and execution primitives used
// to decide whether a provider probe may run and to bound how long it runs.
//
// # Patterns
//
//   - Window: fixed-window counter. A window opens on the first observation
//     after the previous one expired and admits at most Limit operations.
//     WindowSet keeps one independent Window per key.
//
//   - Backoff: per-key "not before" deadline, usually seeded from a
//     server's Retry-After.
//
//   - Gate and Stack: gates are evaluated in order and the first denial
//     short-circuits the rest. Budget consumed by an earlier gate is not
//     refunded when a later gate denies.
//
//   - Timeout: races an operation against a deadline without waiting for
//     operations that ignore their context.
//
//   - Retry: re-runs failed operations with a constant or linear delay.
//
// # Usage
//
// Gates take the current time as an argument, so callers own the clock:
//
//	stack := resilience.NewStack(
//	    resilience.BackoffGate("backoff", backoff),
//	    resilience.WindowGate("global", resilience.NewWindow(resilience.WindowConfig{
//	        Limit:  5,
//	        Length: 5 * time.Minute,
//	    })),
//	    resilience.WindowSetGate("client", perProvider),
//	)
//
//	if d := stack.Admit("openai", time.Now()); !d.Allowed {
//	    log.Printf("skipped: %s", d.Reason)
//	}
package resilience
