package store

import "errors"

var (
	// ErrUnknownProvider is returned when writing a provider that was
	// never seeded.
	ErrUnknownProvider = errors.New("store: unknown provider")

	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("store: closed")
)
