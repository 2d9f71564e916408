package health

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider indicates a provider id that was never registered.
	ErrUnknownProvider = errors.New("health: unknown provider")

	// ErrAlreadyInitialized indicates Initialize was called while running.
	ErrAlreadyInitialized = errors.New("health: already initialized")

	// ErrNotInitialized indicates an operation before Initialize.
	ErrNotInitialized = errors.New("health: not initialized")

	// ErrNoProviders indicates an empty provider set.
	ErrNoProviders = errors.New("health: no providers")

	// ErrDuplicateProvider indicates the same provider id listed twice.
	ErrDuplicateProvider = errors.New("health: duplicate provider")

	// ErrInvalidConfig indicates a rejected configuration value.
	ErrInvalidConfig = errors.New("health: invalid configuration")
)

// ConfigurationError reports misuse of the monitor itself, as opposed to
// a provider failing. It is the only error kind the monitor returns;
// provider failures are recorded in Status instead.
type ConfigurationError struct {
	Op       string
	Provider string
	Err      error
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(op, provider string, err error) *ConfigurationError {
	return &ConfigurationError{Op: op, Provider: provider, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
