package authcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quizcraft/authcore/internal/audit"
	"github.com/quizcraft/authcore/internal/logging"
	"github.com/quizcraft/authcore/internal/mfa"
	"github.com/quizcraft/authcore/internal/rate"
	"github.com/quizcraft/authcore/password"
	"github.com/quizcraft/authcore/token"
)

// CodeVerifier checks a second-factor code against a per-user secret.
// The default is TOTP; implementations must be safe for concurrent use.
type CodeVerifier = mfa.CodeVerifier

// Engine is the authentication orchestrator. Every use case executes as
// an independent request-scoped unit of work; the engine holds no mutable
// state beyond configuration and its dependencies.
type Engine struct {
	config     Config
	log        logging.Logger
	users      UserStore
	notifier   Notifier
	issuer     *token.Issuer
	hasher     *password.Hasher
	policy     *password.Policy
	limiter    *rate.Limiter
	challenges *mfa.ChallengeStore
	verifier   CodeVerifier
	audit      *audit.Dispatcher
	metrics    *Metrics
	sweeper    *token.Sweeper
	now        func() time.Time
}

// MetricsSnapshot copies the engine's counters for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Metric reads one counter.
func (e *Engine) Metric(id MetricID) uint64 {
	if e == nil {
		return 0
	}
	return e.metrics.Value(id)
}

// StartSweeper launches the background cleanup of expired refresh rows.
func (e *Engine) StartSweeper(ctx context.Context) {
	if e == nil || e.sweeper == nil {
		return
	}
	e.sweeper.Start(ctx)
}

// Close stops the sweeper and drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweeper != nil {
		e.sweeper.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// VerifyAccess validates an access token and returns its claims. The jti
// grant must still exist in the cache; see the token package for the
// revocation model.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) (*token.AccessClaims, error) {
	claims, err := e.issuer.VerifyAccess(ctx, accessToken)
	if err != nil {
		return nil, e.mapTokenErr(err)
	}
	return claims, nil
}

// issuePair mints a token pair for the user, deriving permissions from the
// fixed role mapping.
func (e *Engine) issuePair(ctx context.Context, user *User) (*token.Pair, error) {
	pair, err := e.issuer.IssuePair(ctx, token.Subject{
		UserID:      user.ID,
		Email:       user.Email,
		Roles:       user.Roles,
		Permissions: PermissionsForRoles(user.Roles),
	})
	if err != nil {
		return nil, e.mapTokenErr(err)
	}
	return pair, nil
}

// mapTokenErr translates token-package sentinels into the engine taxonomy.
// Infrastructure failures stay distinguishable from bad credentials.
func (e *Engine) mapTokenErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrInvalidToken):
		return ErrUnauthorized
	case errors.Is(err, token.ErrCacheUnavailable):
		return ErrCacheUnavailable
	case errors.Is(err, token.ErrStoreUnavailable):
		return ErrStoreUnavailable
	default:
		return err
	}
}

func mapRateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		return ErrCacheUnavailable
	}
}

// checkAccountStatus is the extension point for ban/lock semantics.
func checkAccountStatus(user *User) error {
	if user.Deactivated {
		return ErrAccountDeactivated
	}
	return nil
}

// normalizeEmail lowercases and trims so lookups and uniqueness both work
// on the canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// loginRateSubject keys the login limiter by (email, ip) so one address
// cannot exhaust another network's budget.
func loginRateSubject(email, ip string) string {
	return email + "|" + ip
}

// notifyAsync hands a notification to the sink on a detached context.
// Delivery is fire-and-forget; failures are logged, never retried here.
func (e *Engine) notifyAsync(n Notification) {
	if e.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.log.Warn(ctx, "notification delivery failed",
				"template", string(n.Template), "user_id", n.UserID, "error", err)
		}
	}()
}

// updateLoginInfo is best-effort; a failed timestamp write must not fail
// the login that just succeeded.
func (e *Engine) updateLoginInfo(ctx context.Context, userID string) {
	if err := e.users.UpdateLoginInfo(ctx, userID, e.now()); err != nil {
		e.log.Warn(ctx, "login info update failed", "user_id", userID, "error", err)
	}
}
