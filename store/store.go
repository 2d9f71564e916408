package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/provwatch/health"
)

// Config configures a Store.
type Config struct {
	// Debounce is how long notifications for one provider are held back
	// to coalesce rapid writes.
	// Default: 500ms
	Debounce time.Duration

	// Buffer is the channel capacity of each subscription. A subscriber
	// that falls this far behind misses changes.
	// Default: 16
	Buffer int
}

// Update is one write to a provider's status.
type Update struct {
	// State is the new state.
	State health.State

	// CheckedAt is when the probe completed. Ignored for StateChecking.
	CheckedAt time.Time

	// Error describes the failure, empty on success.
	Error string

	// Category is the failure classification, nil on success.
	Category *health.Category

	// ResponseTime is the probe duration. Ignored for StateChecking.
	ResponseTime time.Duration

	// RetryAfter is the provider supplied retry delay. Only kept for
	// StateRateLimited.
	RetryAfter time.Duration
}

// Change is a debounced notification of a provider's latest status.
type Change struct {
	Provider string
	Status   health.Status
}

type pendingChange struct {
	status health.Status
	timer  *time.Timer
}

// Store is the debounced status store.
type Store struct {
	config Config

	mu       sync.Mutex
	statuses map[string]health.Status
	pending  map[string]*pendingChange
	subs     map[int]chan Change
	nextSub  int
	closed   bool
}

// New creates an empty store.
func New(config Config) *Store {
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.Buffer <= 0 {
		config.Buffer = 16
	}

	return &Store{
		config:   config,
		statuses: make(map[string]health.Status),
		pending:  make(map[string]*pendingChange),
		subs:     make(map[int]chan Change),
	}
}

// Seed replaces the known providers with ids, each starting from
// health.NewStatus. Pending notifications are dropped.
func (s *Store) Seed(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPendingLocked()
	s.statuses = make(map[string]health.Status, len(ids))
	for _, id := range ids {
		s.statuses[id] = health.NewStatus(id)
	}
}

// Get returns a copy of the provider's status.
func (s *Store) Get(id string) (health.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[id]
	if !ok {
		return health.Status{}, false
	}
	return st.Clone(), true
}

// Snapshot returns a copy of every status keyed by provider.
func (s *Store) Snapshot() map[string]health.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]health.Status, len(s.statuses))
	for id, st := range s.statuses {
		out[id] = st.Clone()
	}
	return out
}

// IDs returns the known providers in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.statuses))
	for id := range s.statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply writes u to the provider's status and returns the result. The
// write is visible to Get immediately; subscribers see it after the
// debounce interval.
func (s *Store) Apply(id string, u Update) (health.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return health.Status{}, ErrClosed
	}
	st, ok := s.statuses[id]
	if !ok {
		return health.Status{}, ErrUnknownProvider
	}

	st = apply(st, u)
	s.statuses[id] = st
	s.scheduleLocked(id, st)
	return st.Clone(), nil
}

func apply(st health.Status, u Update) health.Status {
	st.State = u.State
	st.RateLimitRetryAfterSeconds = nil
	st.RateLimitResetAt = nil

	if u.State == health.StateChecking {
		return st
	}

	checked := u.CheckedAt
	st.LastChecked = &checked
	ms := u.ResponseTime.Milliseconds()
	st.ResponseTimeMs = &ms
	st.LastError = u.Error
	st.ErrorCategory = nil
	if u.Category != nil {
		c := *u.Category
		st.ErrorCategory = &c
	}

	switch u.State {
	case health.StateOnline:
		st.ConsecutiveFailures = 0
		st.LastError = ""
		st.ErrorCategory = nil
	case health.StateOffline:
		st.ConsecutiveFailures++
	case health.StateRateLimited:
		if u.RetryAfter > 0 {
			secs := int((u.RetryAfter + time.Second - 1) / time.Second)
			resetAt := checked.Add(u.RetryAfter)
			st.RateLimitRetryAfterSeconds = &secs
			st.RateLimitResetAt = &resetAt
		}
	}
	return st
}

// scheduleLocked records st as the provider's pending notification. The
// first write arms the timer; later writes within the interval only
// replace the pending status.
func (s *Store) scheduleLocked(id string, st health.Status) {
	if p, ok := s.pending[id]; ok {
		p.status = st
		return
	}

	p := &pendingChange{status: st}
	p.timer = time.AfterFunc(s.config.Debounce, func() {
		s.fire(id, p)
	})
	s.pending[id] = p
}

func (s *Store) fire(id string, p *pendingChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A Flush, Seed or Reset may have replaced this entry already.
	if s.pending[id] != p {
		return
	}
	delete(s.pending, id)
	s.publishLocked(Change{Provider: id, Status: p.status})
}

func (s *Store) publishLocked(c Change) {
	for _, ch := range s.subs {
		select {
		case ch <- Change{Provider: c.Provider, Status: c.Status.Clone()}:
		default:
		}
	}
}

// Subscribe returns a channel of debounced changes and a function that
// ends the subscription. Sends never block; a full channel drops the
// change.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, s.config.Buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

// Flush publishes every pending change now, in provider order.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := s.pending[id]
		p.timer.Stop()
		delete(s.pending, id)
		s.publishLocked(Change{Provider: id, Status: p.status})
	}
}

// Clear forgets every provider and drops pending notifications.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPendingLocked()
	s.statuses = make(map[string]health.Status)
}

// Close flushes pending changes and closes every subscription. Writes
// after Close fail with ErrClosed.
func (s *Store) Close() {
	s.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) stopPendingLocked() {
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Config returns the store configuration.
func (s *Store) Config() Config {
	return s.config
}
