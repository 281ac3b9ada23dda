package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizcraft/authcore/token"
)

// SendPasswordResetEmail issues a password-reset token and hands it to the
// notifier. Unknown addresses return nil so callers cannot probe which
// emails have accounts.
func (e *Engine) SendPasswordResetEmail(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	window := ParseTTL(e.config.RateLimit.EmailWindow)
	if err := e.limiter.Check(ctx, "password_reset", email, e.config.RateLimit.MaxEmailRequests, window); err != nil {
		return mapRateErr(err)
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	resetTok, err := e.issuer.IssueSingleUse(ctx, token.PurposePasswordReset, user.ID, user.Email)
	if err != nil {
		return e.mapTokenErr(err)
	}

	e.notifyAsync(Notification{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Template: TemplatePasswordReset,
		Token:    resetTok,
	})

	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, nil, nil)
	return nil
}

// ResetPassword consumes a reset token, installs the new password, and
// revokes every session the user holds.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	userID, _, err := e.issuer.VerifySingleUse(ctx, token.PurposePasswordReset, resetToken)
	if err != nil {
		mapped := e.mapTokenErr(err)
		if errors.Is(mapped, ErrUnauthorized) {
			e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrUnauthorized, nil)
		}
		return mapped
	}

	if err := e.policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.issuer.RevokeAll(ctx, userID); err != nil {
		return e.mapTokenErr(err)
	}

	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, userID, nil, nil)
	return nil
}
