package resilience

import (
	"sync"
	"time"
)

// WindowConfig configures a fixed-window counter.
type WindowConfig struct {
	// Limit is the number of operations allowed per window.
	// Default: 1
	Limit int

	// Length is the window duration.
	// Default: 1 minute
	Length time.Duration
}

func (c *WindowConfig) applyDefaults() {
	if c.Limit <= 0 {
		c.Limit = 1
	}
	if c.Length <= 0 {
		c.Length = time.Minute
	}
}

// Window is a fixed-window counter. The window starts on the first
// observation after it expired and holds at most Limit operations until
// it expires again.
type Window struct {
	config WindowConfig

	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// NewWindow creates a new fixed-window counter.
func NewWindow(config WindowConfig) *Window {
	config.applyDefaults()
	return &Window{config: config}
}

// Allow consumes one slot if the window has room at now.
func (w *Window) Allow(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rollLocked(now)
	if w.count >= w.config.Limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns the free slots and when the current window ends.
// The reset time is zero if no window is open.
func (w *Window) Remaining(now time.Time) (int, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rollLocked(now)
	return w.config.Limit - w.count, w.resetAt
}

// Config returns the window configuration.
func (w *Window) Config() WindowConfig {
	return w.config
}

func (w *Window) rollLocked(now time.Time) {
	if w.resetAt.IsZero() || !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(w.config.Length)
	}
}

// WindowSet holds one independent Window per key, all sharing a config.
type WindowSet struct {
	config WindowConfig

	mu      sync.Mutex
	windows map[string]*Window
}

// NewWindowSet creates a keyed set of fixed-window counters.
func NewWindowSet(config WindowConfig) *WindowSet {
	config.applyDefaults()
	return &WindowSet{
		config:  config,
		windows: make(map[string]*Window),
	}
}

// Allow consumes one slot from the key's window.
func (s *WindowSet) Allow(key string, now time.Time) bool {
	return s.window(key).Allow(now)
}

// Remaining returns the key's free slots and window end.
func (s *WindowSet) Remaining(key string, now time.Time) (int, time.Time) {
	return s.window(key).Remaining(now)
}

// Config returns the shared window configuration.
func (s *WindowSet) Config() WindowConfig {
	return s.config
}

func (s *WindowSet) window(key string) *Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &Window{config: s.config}
		s.windows[key] = w
	}
	return w
}
