package token

import (
	"context"
	"testing"
	"time"
)

func TestSweeperDeletesExpiredRows(t *testing.T) {
	store := NewMemoryRefreshStore()
	ctx := context.Background()

	_ = store.Create(ctx, &RefreshRecord{
		ID:        "expired",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	_ = store.Create(ctx, &RefreshRecord{
		ID:        "live",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	s := NewSweeper(store, 10*time.Millisecond, nil)
	s.Start(ctx)
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if _, err := store.Find(ctx, "expired"); err != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expired row not swept in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, err := store.Find(ctx, "live"); err != nil {
		t.Fatalf("live row swept: %v", err)
	}
}

func TestSweeperDeletesLongRevokedRows(t *testing.T) {
	store := NewMemoryRefreshStore()
	ctx := context.Background()

	// Unexpired for weeks, but revoked past the retention window.
	_ = store.Create(ctx, &RefreshRecord{
		ID:        "revoked-stale",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		Revoked:   true,
		RevokedAt: time.Now().Add(-8 * 24 * time.Hour),
	})
	// Revoked recently; stays until retention passes.
	_ = store.Create(ctx, &RefreshRecord{
		ID:        "revoked-fresh",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		Revoked:   true,
		RevokedAt: time.Now().Add(-time.Hour),
	})

	s := NewSweeper(store, 10*time.Millisecond, nil)
	s.Start(ctx)
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if _, err := store.Find(ctx, "revoked-stale"); err != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("long-revoked row not swept in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, err := store.Find(ctx, "revoked-fresh"); err != nil {
		t.Fatalf("recently revoked row swept: %v", err)
	}
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	s := NewSweeper(NewMemoryRefreshStore(), time.Hour, nil)
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
