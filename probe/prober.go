package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Prober is the probe capability of one provider.
//
// Contract:
// - Concurrency: a Prober is never called concurrently with itself by the
// monitor, but may be called concurrently with other Probers.
// - Context: implementations should abort when ctx is cancelled; the
// runner stops waiting at its timeout either way.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts an ordinary function to the Prober interface.
type ProberFunc func(ctx context.Context) error

// Probe calls f(ctx).
func (f ProberFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// Failure is a probe error that carries response metadata.
type Failure struct {
	// StatusCode is the HTTP status code, or 0.
	StatusCode int

	// RetryAfter is the server requested delay, or 0.
	RetryAfter time.Duration

	// Message describes the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (f *Failure) Error() string {
	switch {
	case f.Message != "" && f.Err != nil:
		return f.Message + ": " + f.Err.Error()
	case f.Message != "":
		return f.Message
	case f.Err != nil:
		return f.Err.Error()
	case f.StatusCode != 0:
		return fmt.Sprintf("status %d", f.StatusCode)
	default:
		return "probe failed"
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the result of one probe run.
type Outcome struct {
	// Success is true when the probe returned nil.
	Success bool

	// ErrorText describes the failure.
	ErrorText string

	// HTTPStatus is the status code reported by a *Failure, or 0.
	HTTPStatus int

	// RetryAfter is the delay reported by a *Failure, or 0.
	RetryAfter time.Duration

	// Elapsed is the wall time of the run, retries included.
	Elapsed time.Duration

	// Attempts is the number of times the probe was invoked.
	Attempts int

	// TimedOut is true when the runner gave up waiting.
	TimedOut bool
}

// failureOutcome fills the failure fields of an Outcome from err.
func failureOutcome(err error) Outcome {
	out := Outcome{ErrorText: err.Error()}

	var f *Failure
	if errors.As(err, &f) {
		out.HTTPStatus = f.StatusCode
		out.RetryAfter = f.RetryAfter
	}
	return out
}
