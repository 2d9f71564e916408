// Package store holds the authoritative per-provider health.Status map.
//
// Writes go through Apply, which enforces the status invariants at write
// time:
//   - ConsecutiveFailures increments only when a failed probe lands in
//     StateOffline and resets to zero on StateOnline; every other state
//     leaves it untouched.
//   - The rate-limit fields are present only while the state is
//     StateRateLimited.
//
// Reads always see the latest write. Subscribers, on the other hand, are
// notified through a per-provider debounce timer: writes to the same
// provider within the debounce interval collapse into one Change carrying
// the most recent status. A "checking" write immediately followed by the
// probe result therefore produces a single notification.
//
// Store is safe for concurrent use.
package store
