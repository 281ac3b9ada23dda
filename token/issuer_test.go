package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSubject = Subject{
	UserID:      "user-1",
	Email:       "alice@example.com",
	Roles:       []string{"player"},
	Permissions: []string{"quiz:play"},
}

func newTestIssuer(t *testing.T) (*Issuer, *MemoryRefreshStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed to start: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	signer, err := NewSigner(SignerConfig{
		Method:     MethodHS256,
		PrivateKey: []byte("test-secret-at-least-32-bytes-long"),
		Issuer:     "quizcraft",
		Audience:   "quizcraft-api",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	store := NewMemoryRefreshStore()
	iss := NewIssuer(signer, store, client, Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Prefix:     "authtest",
	})
	return iss, store, mr
}

func TestIssuePairVerifyRoundTrip(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if pair.ExpiresIn != 15*60 {
		t.Fatalf("ExpiresIn = %d, want %d", pair.ExpiresIn, 15*60)
	}

	claims, err := iss.VerifyAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "player" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "quiz:play" {
		t.Fatalf("unexpected permissions: %v", claims.Permissions)
	}

	rc, err := iss.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if rc.Subject != "user-1" || rc.Type != "refresh" {
		t.Fatalf("unexpected refresh claims: %+v", rc)
	}
}

func TestVerifyAccessRejectsTamperedToken(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	if _, err := iss.VerifyAccess(ctx, tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if _, err := iss.VerifyAccess(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh as access = %v, want ErrInvalidToken", err)
	}
	if _, err := iss.VerifyRefresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access as refresh = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessFailsWhenGrantMissing(t *testing.T) {
	iss, _, mr := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	// Simulate grant expiry or external revocation.
	mr.FlushAll()

	if _, err := iss.VerifyAccess(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing grant = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessFailsClosedWhenCacheDown(t *testing.T) {
	iss, _, mr := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	mr.Close()

	_, err = iss.VerifyAccess(ctx, pair.AccessToken)
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("cache down = %v, want ErrCacheUnavailable", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatal("cache outage must not read as a bad credential")
	}
}

func TestRevokeAccessInvalidatesToken(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if err := iss.RevokeAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("RevokeAccess failed: %v", err)
	}
	if _, err := iss.VerifyAccess(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked access = %v, want ErrInvalidToken", err)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if err := iss.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := iss.VerifyRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked refresh = %v, want ErrInvalidToken", err)
	}
}

func TestRevokeMalformedTokenIsNoOp(t *testing.T) {
	iss, _, _ := newTestIssuer(t)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if err := iss.Revoke(context.Background(), tok); err != nil {
			t.Fatalf("Revoke(%q) = %v, want nil", tok, err)
		}
	}
}

func TestRevokeAllBlacklistsUser(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	first, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	second, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if err := iss.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAll failed: %v", err)
	}

	for _, tok := range []string{first.AccessToken, second.AccessToken} {
		if _, err := iss.VerifyAccess(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("blacklisted access = %v, want ErrInvalidToken", err)
		}
	}
	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := iss.VerifyRefresh(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("revoked refresh = %v, want ErrInvalidToken", err)
		}
	}

	// A pair issued after the revocation is unaffected by the marker.
	fresh, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if _, err := iss.VerifyAccess(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("post-revocation access = %v, want nil", err)
	}
}

func TestSingleUseConsumeOnce(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	tok, err := iss.IssueSingleUse(ctx, PurposePasswordReset, "user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueSingleUse failed: %v", err)
	}

	userID, email, err := iss.VerifySingleUse(ctx, PurposePasswordReset, tok)
	if err != nil {
		t.Fatalf("VerifySingleUse failed: %v", err)
	}
	if userID != "user-1" || email != "alice@example.com" {
		t.Fatalf("unexpected payload: %q %q", userID, email)
	}

	if _, _, err := iss.VerifySingleUse(ctx, PurposePasswordReset, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed token = %v, want ErrInvalidToken", err)
	}
}

func TestSingleUsePurposeMismatch(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	tok, err := iss.IssueSingleUse(ctx, PurposeEmailVerification, "user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueSingleUse failed: %v", err)
	}
	if _, _, err := iss.VerifySingleUse(ctx, PurposePasswordReset, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cross-purpose token = %v, want ErrInvalidToken", err)
	}
	// Not consumed by the failed attempt.
	if _, _, err := iss.VerifySingleUse(ctx, PurposeEmailVerification, tok); err != nil {
		t.Fatalf("correct-purpose verify failed: %v", err)
	}
}

func TestSingleUseReissueInvalidatesPrior(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	old, err := iss.IssueSingleUse(ctx, PurposePasswordReset, "user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueSingleUse failed: %v", err)
	}
	fresh, err := iss.IssueSingleUse(ctx, PurposePasswordReset, "user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueSingleUse failed: %v", err)
	}

	if _, _, err := iss.VerifySingleUse(ctx, PurposePasswordReset, old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("superseded token = %v, want ErrInvalidToken", err)
	}
	if _, _, err := iss.VerifySingleUse(ctx, PurposePasswordReset, fresh); err != nil {
		t.Fatalf("latest token failed: %v", err)
	}
}

func TestIssuePairPersistsRowBeforeGrant(t *testing.T) {
	iss, store, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	rc, err := iss.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	rec, err := store.Find(ctx, rc.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if rec.UserID != "user-1" || rec.Revoked {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestWrongIssuerRejected(t *testing.T) {
	iss, _, mr := newTestIssuer(t)
	ctx := context.Background()

	other, err := NewSigner(SignerConfig{
		Method:     MethodHS256,
		PrivateKey: []byte("test-secret-at-least-32-bytes-long"),
		Issuer:     "someone-else",
		Audience:   "quizcraft-api",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	foreign := NewIssuer(other, NewMemoryRefreshStore(), client, Config{Prefix: "authtest"})

	pair, err := foreign.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if _, err := iss.VerifyAccess(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign issuer = %v, want ErrInvalidToken", err)
	}
}

func TestSignerRejectsBadConfig(t *testing.T) {
	if _, err := NewSigner(SignerConfig{Method: MethodHS256}); err == nil {
		t.Fatal("expected error for missing hs256 secret")
	}
	if _, err := NewSigner(SignerConfig{Method: "rsa"}); err == nil {
		t.Fatal("expected error for unsupported method")
	}
	if _, err := NewSigner(SignerConfig{
		Method:     MethodHS256,
		PrivateKey: []byte("k"),
		Leeway:     3 * time.Minute,
	}); err == nil {
		t.Fatal("expected error for excessive leeway")
	}
}

func TestAccessTokenPayloadShape(t *testing.T) {
	iss, _, _ := newTestIssuer(t)
	ctx := context.Background()

	pair, err := iss.IssuePair(ctx, testSubject)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	claims, err := iss.VerifyAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Issuer != "quizcraft" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "quizcraft-api" {
		t.Fatalf("audience = %v", claims.Audience)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("missing iat/exp")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("access lifetime = %v, want 15m", got)
	}
	if strings.Count(pair.AccessToken, ".") != 2 {
		t.Fatal("expected compact JWS serialization")
	}
}

// trackingRefreshStore records the id of the last created row.
type trackingRefreshStore struct {
	*MemoryRefreshStore
	lastID string
}

func (s *trackingRefreshStore) Create(ctx context.Context, rec *RefreshRecord) error {
	s.lastID = rec.ID
	return s.MemoryRefreshStore.Create(ctx, rec)
}

func TestIssuePairRevokesRefreshRowOnCacheFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed to start: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	signer, err := NewSigner(SignerConfig{
		Method:     MethodHS256,
		PrivateKey: []byte("test-secret-at-least-32-bytes-long"),
		Issuer:     "quizcraft",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	store := &trackingRefreshStore{MemoryRefreshStore: NewMemoryRefreshStore()}
	iss := NewIssuer(signer, store, client, Config{Prefix: "authtest"})

	mr.Close()

	if _, err := iss.IssuePair(context.Background(), testSubject); !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("want ErrCacheUnavailable, got %v", err)
	}

	// The row was written before the grant attempt; the failed issuance
	// must not leave it redeemable.
	rec, err := store.Find(context.Background(), store.lastID)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if !rec.Revoked {
		t.Fatal("refresh row left redeemable after failed grant write")
	}
}
