package authcore

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword rotates the password of an authenticated user. All
// outstanding sessions are revoked; the caller is expected to log in again.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !e.hasher.Verify(oldPassword, user.PasswordHash) {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, ErrUnauthorized, map[string]string{
			"reason": "password_mismatch",
		})
		return ErrUnauthorized
	}

	if err := e.policy.Validate(newPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, ErrWeakPassword, map[string]string{
			"reason": "password_policy",
		})
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.issuer.RevokeAll(ctx, user.ID); err != nil {
		return e.mapTokenErr(err)
	}

	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, user.ID, nil, nil)
	return nil
}
