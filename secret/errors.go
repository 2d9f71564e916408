package secret

import "errors"

var (
	// ErrMissingEnv indicates an environment variable without a default
	// is not set.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrUnknownSource indicates a secretref naming an unregistered source.
	ErrUnknownSource = errors.New("secret: unknown source")

	// ErrEmptySecret indicates a strict resolver got an empty value.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrNotFound indicates a source has no value for the reference.
	ErrNotFound = errors.New("secret: not found")
)
