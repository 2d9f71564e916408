package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", r.config.MaxAttempts)
	}
	if r.config.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", r.config.Delay)
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})

	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1", calls, attempts)
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
	})

	calls := 0
	testErr := errors.New("test error")

	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts: 2,
		Delay:       time.Millisecond,
	})

	testErr := errors.New("still broken")
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want %v", err, testErr)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetry_RetryIfRejects(t *testing.T) {
	permanent := errors.New("unauthorized")
	r := NewRetry(RetryConfig{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
	})

	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Execute() error = %v, want %v", err, permanent)
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1", calls, attempts)
	}
}

func TestRetry_WaitsBetweenAttempts(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Delay:       20 * time.Millisecond,
	})

	start := time.Now()
	attempts, _ := r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})
	elapsed := time.Since(start)

	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("elapsed = %v, want at least two delays of 20ms", elapsed)
	}
}

func TestRetry_ContextCancelledDuringDelay(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	testErr := errors.New("fail")

	calls := 0
	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = r.Execute(ctx, func(ctx context.Context) error {
			calls++
			return testErr
		})
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute() did not return after cancellation")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want last operation error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
