package authcore

import (
	"context"
	"errors"
	"fmt"
)

// Login authenticates an email/password pair. When the account has MFA
// enabled no tokens are issued; the caller receives a challenge token to
// present to VerifyMFAAndLogin together with a one-time code.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)

	window := ParseTTL(e.config.RateLimit.LoginWindow)
	if err := e.limiter.Check(ctx, "login", loginRateSubject(email, ip), e.config.RateLimit.MaxLoginAttempts, window); err != nil {
		mapped := mapRateErr(err)
		if errors.Is(mapped, ErrRateLimited) {
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrRateLimited, map[string]string{
				"email": email,
			})
		}
		return nil, mapped
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// No audit event for unknown emails; a failure trail keyed on
			// guessed addresses would confirm which accounts exist.
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !e.hasher.Verify(pass, user.PasswordHash) {
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrUnauthorized, map[string]string{
			"reason": "password_mismatch",
		})
		return nil, ErrUnauthorized
	}

	if err := checkAccountStatus(user); err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, err, map[string]string{
			"reason": "account_status",
		})
		return nil, err
	}

	if user.MFAEnabled {
		challengeID, err := e.challenges.Issue(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		e.emitAudit(ctx, auditEventMFARequired, true, user.ID, nil, nil)
		return &LoginResult{
			User:        user.Sanitize(),
			RequiresMFA: true,
			MFAToken:    challengeID,
		}, nil
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	e.updateLoginInfo(ctx, user.ID)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)

	return &LoginResult{
		User:   user.Sanitize(),
		Tokens: pair,
	}, nil
}
