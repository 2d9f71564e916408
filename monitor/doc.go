// Package monitor tracks the availability of a fixed set of AI providers.
//
// An Orchestrator owns one probe capability per provider. Every check goes
// through a layered gate stack before the provider is contacted:
//
//  1. server backoff: while a provider's Retry-After has not elapsed
//  2. global window: a budget shared by all providers
//  3. client window: a per-provider budget, stricter and with a cooldown
//     for manual checks
//
// A denied check returns the cached status with the denial reason in
// LastError. An allowed check marks the provider checking, runs the probe
// under a timeout, classifies any failure and records the result.
//
// Only infrastructure failures (network, timeout, server error, unknown)
// count toward IsDown. A rate limited or out of credit provider has a
// working upstream and is never reported down.
//
// The only error an Orchestrator returns is *health.ConfigurationError;
// provider failures are data in the returned health.Status.
package monitor
