package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizcraft/authcore/internal/mfa"
)

// VerifyMFAAndLogin completes a login that Login answered with
// RequiresMFA. A wrong code leaves the challenge in place so the user can
// retry with the same challenge token until it expires.
func (e *Engine) VerifyMFAAndLogin(ctx context.Context, mfaToken, code string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	userID, err := e.challenges.Resolve(ctx, mfaToken)
	if err != nil {
		if errors.Is(err, mfa.ErrChallengeNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := checkAccountStatus(user); err != nil {
		return nil, err
	}

	if !e.verifier.Verify(user.MFASecret, code, e.now()) {
		e.emitAudit(ctx, auditEventMFAFailure, false, user.ID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	if err := e.challenges.Consume(ctx, mfaToken); err != nil {
		e.log.Warn(ctx, "mfa challenge consume failed", "user_id", user.ID, "error", err)
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	e.updateLoginInfo(ctx, user.ID)
	e.emitAudit(ctx, auditEventMFASuccess, true, user.ID, nil, nil)

	return &LoginResult{
		User:   user.Sanitize(),
		Tokens: pair,
	}, nil
}
