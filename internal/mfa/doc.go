// Package mfa holds the ephemeral second-factor machinery: a Redis-backed
// challenge store binding opaque challenge ids to user ids, and the code
// verifier abstraction with a TOTP default.
//
// # What this package must NOT do
//
//   - Issue session tokens (the engine pairs a resolved challenge with a
//     code check and only then mints tokens).
//   - Import authcore or any sibling internal package.
package mfa
