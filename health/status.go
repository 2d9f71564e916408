package health

import (
	"fmt"
	"time"
)

// State represents the normalized availability of a provider.
type State int

const (
	// StateOnline indicates the last probe succeeded. It is also the
	// initial, optimistic state of every provider.
	StateOnline State = iota
	// StateChecking indicates a probe is in progress.
	StateChecking
	// StateOffline indicates an infrastructure failure: network, timeout,
	// server error or an unclassified failure.
	StateOffline
	// StateAuthRequired indicates the provider rejected the credentials.
	StateAuthRequired
	// StateCreditRequired indicates the account has no usable credit.
	StateCreditRequired
	// StateRateLimited indicates the provider is throttling this account.
	StateRateLimited
)

var stateNames = map[State]string{
	StateOnline:         "online",
	StateChecking:       "checking",
	StateOffline:        "offline",
	StateAuthRequired:   "auth_required",
	StateCreditRequired: "credit_required",
	StateRateLimited:    "rate_limited",
}

// String returns the string representation of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state as its string name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state from its string name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("health: unknown state %q", text)
}

// Category classifies why a probe failed.
type Category int

const (
	CategoryNetwork Category = iota
	CategoryTimeout
	CategoryAuth
	CategoryRateLimit
	CategoryCreditRequired
	CategoryServerError
	CategoryUnknown
)

var categoryNames = map[Category]string{
	CategoryNetwork:        "network",
	CategoryTimeout:        "timeout",
	CategoryAuth:           "auth",
	CategoryRateLimit:      "rate_limit",
	CategoryCreditRequired: "credit_required",
	CategoryServerError:    "server_error",
	CategoryUnknown:        "unknown",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the category as its string name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category from its string name.
func (c *Category) UnmarshalText(text []byte) error {
	for category, name := range categoryNames {
		if name == string(text) {
			*c = category
			return nil
		}
	}
	return fmt.Errorf("health: unknown category %q", text)
}

// Status is the tracked health record of one provider.
//
// Optional fields are nil until the first probe populates them. The
// rate-limit fields are only set while State is StateRateLimited.
type Status struct {
	// Provider is the provider identifier.
	Provider string `json:"provider"`

	// State is the normalized availability state.
	State State `json:"state"`

	// LastChecked is when the last probe completed.
	LastChecked *time.Time `json:"last_checked,omitempty"`

	// LastError is a human readable description of the last failure or,
	// on a returned status, of why a check was skipped.
	LastError string `json:"last_error,omitempty"`

	// ErrorCategory is the classification of the last failure.
	ErrorCategory *Category `json:"error_category,omitempty"`

	// ConsecutiveFailures counts infrastructure failures since the last
	// successful probe.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// ResponseTimeMs is the duration of the last probe in milliseconds.
	ResponseTimeMs *int64 `json:"response_time_ms,omitempty"`

	// RateLimitRetryAfterSeconds is the provider supplied retry delay.
	RateLimitRetryAfterSeconds *int `json:"rate_limit_retry_after_seconds,omitempty"`

	// RateLimitResetAt is when the provider's rate limit is expected to lift.
	RateLimitResetAt *time.Time `json:"rate_limit_reset_at,omitempty"`
}

// NewStatus returns the initial status for a provider: online, never
// checked, no failures.
func NewStatus(provider string) Status {
	return Status{
		Provider: provider,
		State:    StateOnline,
	}
}

// IsOnline reports whether the provider is reachable. Only StateOffline
// counts as not online; accounts that are rate limited or out of credit
// still have a working upstream.
func (s Status) IsOnline() bool {
	return s.State != StateOffline
}

// IsDown reports whether the status trips the circuit-breaker threshold.
func (s Status) IsDown(threshold int) bool {
	return s.State == StateOffline && s.ConsecutiveFailures >= threshold
}

// Clone returns a copy of s that shares no pointers with it.
func (s Status) Clone() Status {
	out := s
	if s.LastChecked != nil {
		t := *s.LastChecked
		out.LastChecked = &t
	}
	if s.ErrorCategory != nil {
		c := *s.ErrorCategory
		out.ErrorCategory = &c
	}
	if s.ResponseTimeMs != nil {
		ms := *s.ResponseTimeMs
		out.ResponseTimeMs = &ms
	}
	if s.RateLimitRetryAfterSeconds != nil {
		secs := *s.RateLimitRetryAfterSeconds
		out.RateLimitRetryAfterSeconds = &secs
	}
	if s.RateLimitResetAt != nil {
		t := *s.RateLimitResetAt
		out.RateLimitResetAt = &t
	}
	return out
}
