package monitor

import (
	"time"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/resilience"
)

// Gate names, as reported in denial logs and metrics.
const (
	GateBackoff  = "backoff"
	GateGlobal   = "global"
	GateClient   = "client"
	GateCooldown = "cooldown"
	GateManual   = "manual"
)

// state is everything Reset throws away. It is guarded by
// Orchestrator.mu.
type state struct {
	initialized bool

	// generation changes on every Initialize and Reset so that a probe
	// finishing afterwards can tell its result is stale.
	generation uint64

	known    map[string]struct{}
	inflight map[string]health.Status

	backoff *resilience.Backoff
	global  *resilience.Window
	client  *resilience.WindowSet
	manual  *resilience.WindowSet

	automaticStack *resilience.Stack
	manualStack    *resilience.Stack
}

func newState(cfg Config, generation uint64, lastChecked func(id string) (time.Time, bool)) *state {
	s := &state{
		generation: generation,
		known:      make(map[string]struct{}),
		inflight:   make(map[string]health.Status),
		backoff:    resilience.NewBackoff(),
		global: resilience.NewWindow(resilience.WindowConfig{
			Limit:  cfg.GlobalMaxChecks,
			Length: cfg.GlobalWindow,
		}),
		client: resilience.NewWindowSet(resilience.WindowConfig{
			Limit:  cfg.ClientMaxChecks,
			Length: cfg.ClientWindow,
		}),
		manual: resilience.NewWindowSet(resilience.WindowConfig{
			Limit:  cfg.ManualMaxChecks,
			Length: cfg.ManualWindow,
		}),
	}

	backoff := resilience.BackoffGate(GateBackoff, s.backoff)
	global := resilience.WindowGate(GateGlobal, s.global)

	s.automaticStack = resilience.NewStack(
		backoff,
		global,
		resilience.WindowSetGate(GateClient, s.client),
	)
	s.manualStack = resilience.NewStack(
		backoff,
		global,
		resilience.CooldownGate(GateCooldown, cfg.ManualCooldown, lastChecked),
		resilience.WindowSetGate(GateManual, s.manual),
	)
	return s
}

func (s *state) stack(t Trigger) *resilience.Stack {
	if t == TriggerManual {
		return s.manualStack
	}
	return s.automaticStack
}
