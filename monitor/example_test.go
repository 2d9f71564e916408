package monitor_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/provwatch/monitor"
	"github.com/jonwraymond/provwatch/probe"
)

func Example() {
	probers := map[string]probe.Prober{
		"openai": probe.ProberFunc(func(context.Context) error { return nil }),
		"anthropic": probe.ProberFunc(func(context.Context) error {
			return &probe.Failure{StatusCode: 429, Message: "rate limit reached"}
		}),
		"local": probe.ProberFunc(func(context.Context) error {
			return errors.New("dial tcp 127.0.0.1:11434: connection refused")
		}),
	}

	m, err := monitor.New(monitor.Config{}, probers)
	if err != nil {
		panic(err)
	}
	defer m.Close()

	if err := m.Initialize([]string{"anthropic", "local", "openai"}); err != nil {
		panic(err)
	}

	statuses, err := m.CheckAll(context.Background(), nil, monitor.TriggerAutomatic)
	if err != nil {
		panic(err)
	}
	for _, id := range m.Providers() {
		st := statuses[id]
		fmt.Println(id, st.State, st.ConsecutiveFailures)
	}
	// Output:
	// anthropic rate_limited 0
	// local offline 1
	// openai online 0
}

func ExampleOrchestrator_IsDown() {
	down := probe.ProberFunc(func(context.Context) error {
		return errors.New("network unreachable")
	})

	m, _ := monitor.New(monitor.Config{ClientMaxChecks: 10}, map[string]probe.Prober{"local": down})
	defer m.Close()
	_ = m.Initialize([]string{"local"})

	for range 3 {
		_, _ = m.CheckOne(context.Background(), "local", monitor.TriggerAutomatic)
	}

	isDown, _ := m.IsDown("local", 0)
	fmt.Println(isDown, m.ListDown(0))
	// Output:
	// true [local]
}
