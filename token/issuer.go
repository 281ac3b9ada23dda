package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Subject is the identity a token pair is minted for.
type Subject struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Pair is one access/refresh issuance.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Config tunes token lifetimes and Redis key namespacing.
type Config struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	BlacklistTTL    time.Duration
	Prefix          string
}

// Issuer mints, verifies, and revokes every token kind.
type Issuer struct {
	signer *Signer
	store  RefreshStore
	redis  redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

// consumeScript deletes the single-use entry only when its value still
// matches the presented jti, so two concurrent consumers cannot both win.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewIssuer(signer *Signer, store RefreshStore, redisClient redis.UniversalClient, cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.BlacklistTTL <= 0 {
		cfg.BlacklistTTL = 24 * time.Hour
	}
	return &Issuer{
		signer: signer,
		store:  store,
		redis:  redisClient,
		cfg:    cfg,
		now:    time.Now,
	}
}

// IssuePair mints an access/refresh pair for the subject. The refresh row
// is persisted before the grant is written, so a token handed back to a
// client is always independently verifiable. A failed grant write fails
// the whole issuance; the orphaned refresh row only affects refresh, never
// access validity.
func (i *Issuer) IssuePair(ctx context.Context, sub Subject) (*Pair, error) {
	now := i.now()
	accessID := uuid.NewString()
	refreshID := uuid.NewString()

	access, err := i.signer.Sign(AccessClaims{
		Email:            sub.Email,
		Roles:            sub.Roles,
		Permissions:      sub.Permissions,
		RegisteredClaims: i.registered(sub.UserID, accessID, now, i.cfg.AccessTTL),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := i.signer.Sign(RefreshClaims{
		Type:             refreshTokenType,
		RegisteredClaims: i.registered(sub.UserID, refreshID, now, i.cfg.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}

	if err := i.store.Create(ctx, &RefreshRecord{
		ID:        refreshID,
		UserID:    sub.UserID,
		ExpiresAt: now.Add(i.cfg.RefreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	grant, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}

	// The per-user set lets RevokeAll delete every outstanding grant
	// exactly. Members for expired grants linger until the set's own TTL
	// fires; deleting a missing key is harmless.
	pipe := i.redis.TxPipeline()
	pipe.Set(ctx, i.grantKey(accessID), grant, i.cfg.AccessTTL)
	pipe.SAdd(ctx, i.userGrantsKey(sub.UserID), accessID)
	pipe.Expire(ctx, i.userGrantsKey(sub.UserID), i.cfg.AccessTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		// Best-effort: the refresh token was never handed out, so its row
		// should not stay redeemable. A row that survives this revoke only
		// affects refresh and is swept eventually.
		_ = i.store.Revoke(ctx, refreshID)
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.cfg.AccessTTL / time.Second),
	}, nil
}

// VerifyAccess checks signature, issuer, audience, and expiry, then
// requires the grant entry to exist, the per-token revocation marker to be
// absent, and the token to postdate any per-user blacklist marker. Cache
// errors fail closed as ErrCacheUnavailable, never as a silently accepted
// token.
func (i *Issuer) VerifyAccess(ctx context.Context, tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.signer.Parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if err := i.redis.Get(ctx, i.grantKey(claims.ID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	n, err := i.redis.Exists(ctx, i.revokedKey(claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if n > 0 {
		return nil, ErrInvalidToken
	}

	// The blacklist marker holds the revocation time; only tokens issued
	// before that moment are rejected, so a fresh login right after a
	// "log out everywhere" stays valid.
	blVal, err := i.redis.Get(ctx, i.blacklistKey(claims.Subject)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if err == nil {
		cutoff, parseErr := strconv.ParseInt(blVal, 10, 64)
		if parseErr != nil || claims.IssuedAt == nil || claims.IssuedAt.Time.Unix() < cutoff {
			return nil, ErrInvalidToken
		}
	}

	return &claims, nil
}

// VerifyRefresh checks signature, type marker, and expiry, then requires
// the durable row to exist, be unrevoked, and be unexpired. It does not
// consume the token; rotation is the caller's job.
func (i *Issuer) VerifyRefresh(ctx context.Context, tokenStr string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.signer.Parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.Type != refreshTokenType || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	rec, err := i.store.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if rec.Revoked || i.now().After(rec.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// Revoke marks the presented refresh token's durable row revoked.
// Malformed input is a no-op, not an error, since logout-time callers
// often hold tokens that are already invalid.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	var claims RefreshClaims
	if err := i.signer.Parse(refreshToken, &claims); err != nil {
		return nil
	}
	if claims.Type != refreshTokenType || claims.ID == "" {
		return nil
	}
	if err := i.store.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAccess invalidates one outstanding access token by deleting its
// grant and writing a revocation marker for the token's remaining life.
// Malformed input is a no-op.
func (i *Issuer) RevokeAccess(ctx context.Context, accessToken string) error {
	var claims AccessClaims
	if err := i.signer.Parse(accessToken, &claims); err != nil {
		return nil
	}
	if claims.ID == "" {
		return nil
	}

	ttl := i.cfg.AccessTTL
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Time.Sub(i.now()); left > 0 && left < ttl {
			ttl = left
		}
	}

	pipe := i.redis.TxPipeline()
	pipe.Del(ctx, i.grantKey(claims.ID))
	pipe.Set(ctx, i.revokedKey(claims.ID), "1", ttl)
	if claims.Subject != "" {
		pipe.SRem(ctx, i.userGrantsKey(claims.Subject), claims.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// RevokeAll bulk-revokes the user's refresh rows, deletes every
// outstanding access grant, and writes a timestamped blacklist marker for
// BlacklistTTL as a backstop against grants that escaped the set.
func (i *Issuer) RevokeAll(ctx context.Context, userID string) error {
	if err := i.store.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	jtis, err := i.redis.SMembers(ctx, i.userGrantsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, i.grantKey(jti))
	}
	keys = append(keys, i.userGrantsKey(userID))

	cutoff := strconv.FormatInt(i.now().Unix(), 10)

	pipe := i.redis.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Set(ctx, i.blacklistKey(userID), cutoff, i.cfg.BlacklistTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// IssueSingleUse mints a verification or reset token. The cache entry for
// the (purpose, user) pair is overwritten, so only the most recently
// issued token is ever valid.
func (i *Issuer) IssueSingleUse(ctx context.Context, purpose Purpose, userID, email string) (string, error) {
	ttl := i.cfg.VerificationTTL
	if purpose == PurposePasswordReset {
		ttl = i.cfg.ResetTTL
	}

	id := uuid.NewString()
	tok, err := i.signer.Sign(SingleUseClaims{
		Email:            email,
		Type:             string(purpose),
		RegisteredClaims: i.registered(userID, id, i.now(), ttl),
	})
	if err != nil {
		return "", err
	}

	if err := i.redis.Set(ctx, i.singleUseKey(purpose, userID), id, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return tok, nil
}

// VerifySingleUse validates and consumes a single-use token in one step.
// The compare-and-delete is atomic, so a token cannot be replayed even
// within its TTL.
func (i *Issuer) VerifySingleUse(ctx context.Context, purpose Purpose, tokenStr string) (userID, email string, err error) {
	var claims SingleUseClaims
	if err := i.signer.Parse(tokenStr, &claims); err != nil {
		return "", "", err
	}
	if claims.Type != string(purpose) || claims.ID == "" || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}

	deleted, err := consumeScript.Run(ctx, i.redis, []string{i.singleUseKey(purpose, claims.Subject)}, claims.ID).Int()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if deleted == 0 {
		return "", "", ErrInvalidToken
	}

	return claims.Subject, claims.Email, nil
}

// ClearUserCache removes the user's cache-resident session state: the
// blacklist marker stays (it is the revocation signal), but any stale
// single-use entries go.
func (i *Issuer) ClearUserCache(ctx context.Context, userID string) error {
	keys := []string{
		i.singleUseKey(PurposeEmailVerification, userID),
		i.singleUseKey(PurposePasswordReset, userID),
	}
	if err := i.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (i *Issuer) registered(userID, jti string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		Issuer:    i.signer.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if i.signer.config.Audience != "" {
		rc.Audience = jwt.ClaimStrings{i.signer.config.Audience}
	}
	return rc
}

func (i *Issuer) grantKey(jti string) string {
	return i.cfg.Prefix + ":grant:" + jti
}

func (i *Issuer) revokedKey(jti string) string {
	return i.cfg.Prefix + ":rvk:" + jti
}

func (i *Issuer) blacklistKey(userID string) string {
	return i.cfg.Prefix + ":bl:" + userID
}

func (i *Issuer) userGrantsKey(userID string) string {
	return i.cfg.Prefix + ":grants:" + userID
}

func (i *Issuer) singleUseKey(purpose Purpose, userID string) string {
	return i.cfg.Prefix + ":su:" + string(purpose) + ":" + userID
}
