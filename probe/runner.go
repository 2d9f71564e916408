package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/provwatch/resilience"
)

// RunnerConfig configures the probe runner.
type RunnerConfig struct {
	// Timeout bounds a single probe attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// Attempts is the number of probe invocations per run.
	// Default: 1 (no retry)
	Attempts int

	// RetryDelay is the wait between attempts.
	// Default: 1 second
	RetryDelay time.Duration

	// RetryIf decides whether a failed attempt is worth repeating. It
	// receives the attempt's Outcome.
	// Default: retry every failure.
	RetryIf func(Outcome) bool
}

// Runner executes probes under a timeout.
type Runner struct {
	config  RunnerConfig
	timeout *resilience.Timeout
	retry   *resilience.Retry
}

// NewRunner creates a probe runner.
func NewRunner(config RunnerConfig) *Runner {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.RetryIf == nil {
		config.RetryIf = func(Outcome) bool { return true }
	}

	r := &Runner{
		config:  config,
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: config.Timeout}),
	}
	r.retry = resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: config.Attempts,
		Delay:       config.RetryDelay,
		RetryIf: func(err error) bool {
			return config.RetryIf(r.outcomeOf(err))
		},
	})
	return r
}

// Run invokes p and reports the outcome. Run never returns an error: every
// failure, including a timeout or a cancellation, is captured
// in the Outcome.
func (r *Runner) Run(ctx context.Context, p Prober) Outcome {
	start := time.Now()

	attempts, err := r.retry.Execute(ctx, func(ctx context.Context) error {
		return r.timeout.Execute(ctx, p.Probe)
	})

	var out Outcome
	if err == nil {
		out = Outcome{Success: true}
	} else {
		out = r.outcomeOf(err)
	}
	out.Attempts = attempts
	out.Elapsed = time.Since(start)
	return out
}

// Config returns the runner configuration.
func (r *Runner) Config() RunnerConfig {
	return r.config
}

func (r *Runner) outcomeOf(err error) Outcome {
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		return Outcome{
			ErrorText: fmt.Sprintf("probe timed out after %s", r.config.Timeout),
			TimedOut:  true,
		}
	case errors.Is(err, context.Canceled):
		return Outcome{ErrorText: "probe aborted: " + err.Error()}
	default:
		return failureOutcome(err)
	}
}
