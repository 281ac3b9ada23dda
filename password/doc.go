// Package password implements credential hashing and password strength policy.
//
// # Hashing
//
// [Hasher] wraps bcrypt with a configurable work factor (cost 12 by default).
// Verification is boolean-only: malformed digests and algorithm mismatches
// report false rather than surfacing an error, so callers always get a single
// yes/no answer.
//
// # Policy
//
// [Policy] enforces the strength gate (length, character classes, common
// passwords, sequential and repeated runs) and computes an informational
// 0..100 score. Validate is the enforced check; Score and Describe exist for
// UI feedback only.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords at runtime.
package password
