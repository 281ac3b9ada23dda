package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRefreshRotatesTokens(t *testing.T) {
	e, env := newTestEngine(t)
	ctx := context.Background()

	res := mustRegister(t, e, env, "alice@example.com")

	pair, err := e.RefreshTokens(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if pair.RefreshToken == res.Tokens.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	if _, err := e.VerifyAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("new access token rejected: %v", err)
	}

	// The presented refresh token is spent.
	_, err = e.RefreshTokens(ctx, res.Tokens.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for reused refresh token, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.RefreshTokens(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestRefreshRejectsDeactivatedAccount(t *testing.T) {
	e, env := newTestEngine(t)
	ctx := context.Background()

	res := mustRegister(t, e, env, "alice@example.com")
	env.users.mutate(t, res.User.ID, func(u *User) { u.Deactivated = true })

	_, err := e.RefreshTokens(ctx, res.Tokens.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestLogoutKillsSession(t *testing.T) {
	e, env := newTestEngine(t)
	ctx := context.Background()

	res := mustRegister(t, e, env, "alice@example.com")

	if err := e.Logout(ctx, res.User.ID, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	_, err := e.VerifyAccess(ctx, res.Tokens.AccessToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("access token should be dead after logout, got %v", err)
	}

	_, err = e.RefreshTokens(ctx, res.Tokens.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refresh token should be dead after logout, got %v", err)
	}
}

func TestLogoutRevokesEverySession(t *testing.T) {
	e, env := newTestEngine(t)
	ctx := context.Background()

	res := mustRegister(t, e, env, "alice@example.com")

	second, err := e.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	// Logging out the first session takes the second one down as well.
	if err := e.Logout(ctx, res.User.ID, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	_, err = e.VerifyAccess(ctx, second.Tokens.AccessToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("second session should be revoked, got %v", err)
	}
	_, err = e.RefreshTokens(ctx, second.Tokens.RefreshToken)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("second refresh token should be revoked, got %v", err)
	}
}
