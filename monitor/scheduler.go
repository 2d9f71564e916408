package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/observe"
)

// ErrSchedulerRunning is returned by Start on a running Scheduler.
var ErrSchedulerRunning = errors.New("monitor: scheduler already running")

// Scheduler runs automatic CheckAll rounds every CheckInterval.
// A round still running when the next one is due causes that tick to be
// skipped.
type Scheduler struct {
	orch   *Orchestrator
	logger observe.Logger

	round sync.Mutex

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler for o. A nil logger discards output.
func NewScheduler(o *Orchestrator, logger observe.Logger) *Scheduler {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Scheduler{orch: o, logger: logger}
}

// Start schedules rounds. The first round runs one CheckInterval from
// now; call RunNow for an immediate one. Start fails with
// health.ErrInvalidConfig when CheckInterval is too short for the client
// window to admit every round.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrSchedulerRunning
	}

	cfg := s.orch.Config()
	interval := cfg.CheckInterval
	if interval*time.Duration(cfg.ClientMaxChecks) <= cfg.ClientWindow {
		return fmt.Errorf("%w: check interval %s must exceed the client window of %d checks per %s",
			health.ErrInvalidConfig, interval, cfg.ClientMaxChecks, cfg.ClientWindow)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.cron = cron.New()
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if _, err := s.RunNow(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "scheduled check failed", observe.F("error", err))
		}
	}))
	s.cron.Start()

	s.logger.Info(ctx, "scheduler started", observe.F("interval", interval.String()))
	return nil
}

// RunNow runs one automatic round over every provider. It reports false
// without checking anything when another round is in progress.
func (s *Scheduler) RunNow(ctx context.Context) (bool, error) {
	if !s.round.TryLock() {
		s.logger.Warn(ctx, "check round still running, skipping tick")
		return false, nil
	}
	defer s.round.Unlock()

	statuses, err := s.orch.CheckAll(ctx, nil, TriggerAutomatic)
	if err != nil {
		return true, err
	}

	counts := make(map[health.State]int)
	for _, st := range statuses {
		counts[st.State]++
	}
	s.logger.Debug(ctx, "check round completed",
		observe.F("providers", len(statuses)),
		observe.F("online", counts[health.StateOnline]),
		observe.F("offline", counts[health.StateOffline]),
		observe.F("rate_limited", counts[health.StateRateLimited]),
	)
	return true, nil
}

// Stop ends scheduling and waits for a running round to return. Probes
// already started run to completion; providers not yet reached are
// skipped. When ctx ends first Stop returns its error, and the Scheduler
// may be started again. Stop on a stopped Scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	c := s.cron
	s.cron = nil
	s.cancel()

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info(ctx, "scheduler stopped")
	return nil
}
