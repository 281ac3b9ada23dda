package authcore

import "context"

// Logout revokes the presented refresh token, every other refresh token
// the user holds, and all outstanding access grants. Pending single-use
// tokens are cleared as well.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken string) error {
	if e == nil || e.issuer == nil {
		return ErrEngineNotReady
	}

	if refreshToken != "" {
		if err := e.issuer.Revoke(ctx, refreshToken); err != nil {
			return e.mapTokenErr(err)
		}
	}

	if err := e.issuer.RevokeAll(ctx, userID); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, userID, e.mapTokenErr(err), nil)
		return e.mapTokenErr(err)
	}

	if err := e.issuer.ClearUserCache(ctx, userID); err != nil {
		e.log.Warn(ctx, "single-use token cleanup failed", "user_id", userID, "error", err)
	}

	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	return nil
}
