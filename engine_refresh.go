package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizcraft/authcore/token"
)

// RefreshTokens exchanges a valid refresh token for a fresh pair. The
// presented token is revoked, so each refresh token works exactly once.
func (e *Engine) RefreshTokens(ctx context.Context, refreshToken string) (*token.Pair, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.issuer.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		mapped := e.mapTokenErr(err)
		if errors.Is(mapped, ErrUnauthorized) {
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrUnauthorized, nil)
		}
		return nil, mapped
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, ErrUnauthorized, nil)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := checkAccountStatus(user); err != nil {
		e.emitAudit(ctx, auditEventRefreshInvalid, false, user.ID, err, map[string]string{
			"reason": "account_status",
		})
		return nil, ErrUnauthorized
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := e.issuer.Revoke(ctx, refreshToken); err != nil {
		return nil, e.mapTokenErr(err)
	}

	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, nil, nil)
	return pair, nil
}
