package authcore

import "errors"

var (
	// ErrWeakPassword is returned when a password fails the strength policy.
	// It wraps a password.PolicyError carrying the individual violations.
	ErrWeakPassword = errors.New("password too weak")
	// ErrUnauthorized covers bad credentials, invalid/expired/revoked tokens,
	// and failed MFA codes. Callers never learn which check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailTaken is returned when registration collides with an existing
	// normalized email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRateLimited is returned when an attempt budget is exhausted.
	ErrRateLimited = errors.New("too many attempts, try later")
	// ErrUserNotFound is returned by user stores and by flows that may
	// reveal account existence.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountDeactivated is returned when the account-status check fails.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrStoreUnavailable wraps durable store failures so clients do not
	// mistake an outage for a bad credential.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrCacheUnavailable wraps cache failures. Token checks fail closed
	// with this error rather than accepting an unverifiable token.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrEngineNotReady is returned when the engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
