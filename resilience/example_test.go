package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/provwatch/resilience"
)

func ExampleNewStack() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	backoff := resilience.NewBackoff()
	global := resilience.NewWindow(resilience.WindowConfig{Limit: 5, Length: 5 * time.Minute})
	client := resilience.NewWindowSet(resilience.WindowConfig{Limit: 1, Length: 10 * time.Minute})

	stack := resilience.NewStack(
		resilience.BackoffGate("backoff", backoff),
		resilience.WindowGate("global", global),
		resilience.WindowSetGate("client", client),
	)

	fmt.Println("first:", stack.Admit("alpha", now).Allowed)

	d := stack.Admit("alpha", now.Add(time.Minute))
	fmt.Println("second:", d.Allowed, d.Gate)

	backoff.Set("beta", now.Add(30*time.Second))
	d = stack.Admit("beta", now.Add(10*time.Second))
	fmt.Println("beta:", d.Allowed, d.Gate)
	// Output:
	// first: true
	// second: false client
	// beta: false backoff
}

func ExampleWindow() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := resilience.NewWindow(resilience.WindowConfig{Limit: 2, Length: time.Minute})

	fmt.Println(w.Allow(now), w.Allow(now), w.Allow(now))
	fmt.Println("after expiry:", w.Allow(now.Add(time.Minute)))
	// Output:
	// true true false
	// after expiry: true
}

func ExampleNewTimeout() {
	timeout := resilience.NewTimeout(resilience.TimeoutConfig{
		Timeout: 10 * time.Millisecond,
	})

	err := timeout.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	fmt.Println("timed out:", errors.Is(err, resilience.ErrTimeout))
	// Output:
	// timed out: true
}

func ExampleNewRetry() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
	})

	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	fmt.Println("attempts:", attempts, "error:", err)
	// Output:
	// attempts: 2 error: <nil>
}
