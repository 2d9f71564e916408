package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrRateLimitExceeded", ErrRateLimitExceeded},
		{"ErrTimeout", ErrTimeout},
		{"ErrPanic", ErrPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s is nil", tt.name)
			}

			// Check error message is not empty
			if tt.err.Error() == "" {
				t.Errorf("%s has empty message", tt.name)
			}
		})
	}
}

func TestDecision_Err(t *testing.T) {
	if err := Allow.Err(); err != nil {
		t.Errorf("Allow.Err() = %v, want nil", err)
	}

	denied := Decision{Gate: "global", Reason: "budget exhausted", RetryAt: time.Now()}
	err := denied.Err()
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Err() = %v, want ErrRateLimitExceeded", err)
	}
}
