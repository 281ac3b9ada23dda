// Package authcore implements account and session lifecycle for the
// QuizCraft platform: registration and login with bcrypt password hashing,
// JWT access tokens paired with durable refresh tokens, Redis-backed
// revocation, single-use email-verification and password-reset tokens, and
// TOTP-based multi-factor login.
//
// Engine methods are safe for concurrent use after construction through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types such as [User] and [LoginResult]. Token signing and
// revocation live in the token sub-package; rate limiting, audit dispatch,
// MFA challenges, and logging live under internal/ and are never exported
// directly.
//
// # Session model
//
// An access token is valid only while its grant key exists in Redis, so a
// logout or password change takes effect on the very next request instead
// of waiting for JWT expiry. Refresh tokens are rows in a durable store and
// rotate on every use. When Redis is unreachable, token verification fails
// closed with [ErrCacheUnavailable] rather than reporting the token invalid.
package authcore
