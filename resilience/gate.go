package resilience

import (
	"fmt"
	"time"
)

// Decision is the verdict of a gate.
type Decision struct {
	// Allowed is true when the operation may proceed.
	Allowed bool

	// Gate names the gate that denied the operation.
	Gate string

	// Reason is a human readable explanation of a denial.
	Reason string

	// RetryAt is the earliest time the denying gate could allow again.
	RetryAt time.Time
}

// Allow is the decision of a gate that lets the operation through.
var Allow = Decision{Allowed: true}

// Err returns nil for an allowed decision and an error wrapping
// ErrRateLimitExceeded otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRateLimitExceeded, d.Reason)
}

// Gate decides whether an operation for key may run at now.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Side effects: a gate may consume budget when it allows, never when it
// denies.
type Gate interface {
	Name() string
	Admit(key string, now time.Time) Decision
}

// GateFunc adapts a function to the Gate interface.
type GateFunc struct {
	name string
	fn   func(key string, now time.Time) Decision
}

// NewGateFunc creates a named gate from fn.
func NewGateFunc(name string, fn func(key string, now time.Time) Decision) *GateFunc {
	return &GateFunc{name: name, fn: fn}
}

// Name returns the gate name.
func (g *GateFunc) Name() string {
	return g.name
}

// Admit runs the gate function.
func (g *GateFunc) Admit(key string, now time.Time) Decision {
	return g.fn(key, now)
}

// BackoffGate denies keys whose backoff deadline has not passed.
func BackoffGate(name string, b *Backoff) Gate {
	return NewGateFunc(name, func(key string, now time.Time) Decision {
		until, ok := b.Until(key)
		if !ok || !now.Before(until) {
			return Allow
		}
		return Decision{
			Gate:    name,
			Reason:  fmt.Sprintf("server requested backoff, retry in %s", until.Sub(now).Round(time.Second)),
			RetryAt: until,
		}
	})
}

// WindowGate consumes one slot of a window shared by every key.
func WindowGate(name string, w *Window) Gate {
	return NewGateFunc(name, func(_ string, now time.Time) Decision {
		if w.Allow(now) {
			return Allow
		}
		_, resetAt := w.Remaining(now)
		cfg := w.Config()
		return Decision{
			Gate: name,
			Reason: fmt.Sprintf("%d checks per %s exhausted, resets in %s",
				cfg.Limit, cfg.Length, resetAt.Sub(now).Round(time.Second)),
			RetryAt: resetAt,
		}
	})
}

// WindowSetGate consumes one slot of the key's own window.
func WindowSetGate(name string, s *WindowSet) Gate {
	return NewGateFunc(name, func(key string, now time.Time) Decision {
		if s.Allow(key, now) {
			return Allow
		}
		_, resetAt := s.Remaining(key, now)
		cfg := s.Config()
		return Decision{
			Gate: name,
			Reason: fmt.Sprintf("%d checks per %s exhausted, resets in %s",
				cfg.Limit, cfg.Length, resetAt.Sub(now).Round(time.Second)),
			RetryAt: resetAt,
		}
	})
}

// CooldownGate denies keys whose last operation, as reported by last,
// happened less than cooldown ago.
func CooldownGate(name string, cooldown time.Duration, last func(key string) (time.Time, bool)) Gate {
	return NewGateFunc(name, func(key string, now time.Time) Decision {
		at, ok := last(key)
		if !ok {
			return Allow
		}
		ready := at.Add(cooldown)
		if !now.Before(ready) {
			return Allow
		}
		return Decision{
			Gate:    name,
			Reason:  fmt.Sprintf("checked %s ago, cooldown is %s", now.Sub(at).Round(time.Second), cooldown),
			RetryAt: ready,
		}
	})
}

// Stack evaluates gates in order. The first denial short-circuits the
// rest, so budget consumed by earlier gates stays consumed.
type Stack struct {
	gates []Gate
}

// NewStack creates a gate stack evaluated in the given order.
func NewStack(gates ...Gate) *Stack {
	return &Stack{gates: gates}
}

// Admit runs the gates in order and returns the first denial, or Allow.
func (s *Stack) Admit(key string, now time.Time) Decision {
	for _, g := range s.gates {
		if d := g.Admit(key, now); !d.Allowed {
			if d.Gate == "" {
				d.Gate = g.Name()
			}
			return d
		}
	}
	return Allow
}

// Gates returns the gate names in evaluation order.
func (s *Stack) Gates() []string {
	names := make([]string, len(s.gates))
	for i, g := range s.gates {
		names[i] = g.Name()
	}
	return names
}
