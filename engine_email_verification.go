package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizcraft/authcore/token"
)

// SendVerificationEmail issues a fresh email-verification token for the
// given address and hands it to the notifier. Re-requesting invalidates
// any previously issued verification token for the same user.
func (e *Engine) SendVerificationEmail(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	window := ParseTTL(e.config.RateLimit.EmailWindow)
	if err := e.limiter.Check(ctx, "email_verification", email, e.config.RateLimit.MaxEmailRequests, window); err != nil {
		return mapRateErr(err)
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	verTok, err := e.issuer.IssueSingleUse(ctx, token.PurposeEmailVerification, user.ID, user.Email)
	if err != nil {
		return e.mapTokenErr(err)
	}

	e.notifyAsync(Notification{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Template: TemplateEmailVerification,
		Token:    verTok,
	})

	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, user.ID, nil, nil)
	return nil
}

// VerifyEmail consumes a verification token and marks the account's email
// as verified. A token can satisfy this exactly once.
func (e *Engine) VerifyEmail(ctx context.Context, verificationToken string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	userID, _, err := e.issuer.VerifySingleUse(ctx, token.PurposeEmailVerification, verificationToken)
	if err != nil {
		mapped := e.mapTokenErr(err)
		if errors.Is(mapped, ErrUnauthorized) {
			e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", ErrUnauthorized, nil)
		}
		return mapped
	}

	if err := e.users.SetEmailVerified(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, userID, nil, nil)
	return nil
}
