package token

import "errors"

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// wrong type, expiry, revocation, missing grant, consumed single-use.
	// Callers never learn which check failed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrCacheUnavailable wraps Redis transport failures. Verification
	// paths return it instead of guessing, so an outage reads as a
	// transient failure rather than a bad credential.
	ErrCacheUnavailable = errors.New("token cache unavailable")
	// ErrStoreUnavailable wraps durable store failures.
	ErrStoreUnavailable = errors.New("token store unavailable")
)
