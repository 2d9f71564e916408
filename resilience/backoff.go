package resilience

import (
	"sync"
	"time"
)

// Backoff tracks a per-key "do not call before" deadline, typically
// seeded from a server's Retry-After.
type Backoff struct {
	mu    sync.Mutex
	until map[string]time.Time
}

// NewBackoff creates an empty backoff tracker.
func NewBackoff() *Backoff {
	return &Backoff{until: make(map[string]time.Time)}
}

// Set records that key must not be called before until. A later Set
// replaces the deadline, even with an earlier one.
func (b *Backoff) Set(key string, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.until[key] = until
}

// Clear removes the key's deadline.
func (b *Backoff) Clear(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.until, key)
}

// Until returns the key's deadline, if any.
func (b *Backoff) Until(key string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.until[key]
	return t, ok
}
