// Package token implements the dual-token session model: short-lived JWT
// access tokens whose revocability comes from a Redis grant entry, and
// long-lived refresh tokens backed by a durable store row. It also mints
// the single-use tokens behind email verification and password reset.
//
// # Components
//
//   - [Signer] — JWT signing/parsing (HS256 or Ed25519) with issuer and
//     audience enforcement.
//   - [Issuer] — pair issuance, verification, revocation, single-use tokens.
//   - [RefreshStore] — durable store contract for refresh token rows.
//   - [Sweeper] — periodic cleanup of expired and long-revoked refresh rows.
//
// # Revocation model
//
// A cryptographically valid access token is honored only while its grant
// entry exists in Redis. Deleting the grant, writing a per-token revocation
// marker, or blacklisting the user all invalidate it immediately. When
// Redis is unreachable verification fails closed: the grant's presence is
// the sole revocation signal, so an unreadable cache means an invalid token.
//
// # What this package must NOT do
//
//   - Look up users or check account status (the engine does).
//   - Emit audit events.
package token
