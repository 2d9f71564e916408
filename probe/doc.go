// Package probe runs provider probe capabilities and reports their outcome.
//
// A Prober is supplied by the embedding application, one per provider. It
// performs the cheapest request that proves the provider is reachable and
// authorised, and returns nil on success. To pass an HTTP status code or a
// server requested retry delay along with the failure, return a *Failure.
//
// The Runner races a Prober against a timeout and turns whatever happened
// into an Outcome. It knows nothing about rate limits or provider states.
package probe
