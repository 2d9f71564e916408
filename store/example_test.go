package store_test

import (
	"fmt"
	"time"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/store"
)

func ExampleStore_Apply() {
	s := store.New(store.Config{})
	defer s.Close()
	s.Seed([]string{"openai"})

	network := health.CategoryNetwork
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for range 2 {
		_, _ = s.Apply("openai", store.Update{
			State:     health.StateOffline,
			CheckedAt: at,
			Error:     "dial tcp: connection refused",
			Category:  &network,
		})
	}
	st, _ := s.Apply("openai", store.Update{State: health.StateOnline, CheckedAt: at})

	fmt.Println(st.State, st.ConsecutiveFailures)
	// Output: online 0
}

func ExampleStore_Subscribe() {
	s := store.New(store.Config{Debounce: time.Hour})
	defer s.Close()
	s.Seed([]string{"openai"})

	changes, cancel := s.Subscribe()
	defer cancel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, _ = s.Apply("openai", store.Update{State: health.StateChecking})
	_, _ = s.Apply("openai", store.Update{State: health.StateOnline, CheckedAt: at})
	s.Flush()

	c := <-changes
	fmt.Println(c.Provider, c.Status.State, len(changes))
	// Output: openai online 0
}
