package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizcraft/authcore/token"
)

// Register creates a new account, issues a session token pair, and
// schedules the verification email. The returned user is sanitized.
func (e *Engine) Register(ctx context.Context, email, pass, nickname string) (*RegisterResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)

	if err := e.policy.Validate(pass); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrWeakPassword, map[string]string{
			"reason": "password_policy",
		})
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Roles:        []string{e.config.Account.DefaultRole},
		CreatedAt:    e.now(),
	}

	if err := e.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, user.ID, err, map[string]string{
			"reason": "token_issuance",
		})
		return nil, err
	}

	// Verification email is best-effort at registration time; the user can
	// re-request it via SendVerificationEmail.
	if verTok, err := e.issuer.IssueSingleUse(ctx, token.PurposeEmailVerification, user.ID, user.Email); err != nil {
		e.log.Warn(ctx, "verification token issuance failed", "user_id", user.ID, "error", err)
	} else {
		e.notifyAsync(Notification{
			UserID:   user.ID,
			Email:    user.Email,
			Nickname: user.Nickname,
			Template: TemplateEmailVerification,
			Token:    verTok,
		})
	}

	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, nil, nil)

	return &RegisterResult{
		User:   user.Sanitize(),
		Tokens: pair,
	}, nil
}
