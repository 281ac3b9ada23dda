// Package rate provides the Redis-backed fixed-window rate limiter used by
// security-sensitive authentication workflows.
//
// # Window semantics
//
// Counters are keyed by action, subject, and a window bucket derived from the
// current unix time divided by the window length. Check always increments
// the bucket (INCR + conditional EXPIRE on first hit) and allows the call
// iff the post-increment count does not exceed the limit.
//
// # What this package must NOT do
//
//   - Decide which actions get limited or with what budgets (the engine does).
//   - Be imported outside the authcore module.
package rate
