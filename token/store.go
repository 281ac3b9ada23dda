package token

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRefreshNotFound is returned by RefreshStore implementations when no
// row matches the given id.
var ErrRefreshNotFound = errors.New("refresh token not found")

// RefreshRecord is the durable row backing one refresh token. The ID is
// the token's jti. RevokedAt is zero until the row is revoked.
type RefreshRecord struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt time.Time
	CreatedAt time.Time
}

// RefreshStore is the durable store contract for refresh tokens.
// Implementations must return ErrRefreshNotFound from Find when the id is
// unknown, treat Revoke of a missing id as a no-op, and stamp RevokedAt
// when marking rows revoked. DeleteExpired removes rows that expired
// before expiredBefore plus rows revoked before revokedBefore.
type RefreshStore interface {
	Create(ctx context.Context, rec *RefreshRecord) error
	Find(ctx context.Context, id string) (*RefreshRecord, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error)
}

// MemoryRefreshStore is an in-process RefreshStore for tests and demos.
type MemoryRefreshStore struct {
	mu   sync.RWMutex
	rows map[string]RefreshRecord
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{rows: make(map[string]RefreshRecord)}
}

func (m *MemoryRefreshStore) Create(_ context.Context, rec *RefreshRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID] = *rec
	return nil
}

func (m *MemoryRefreshStore) Find(_ context.Context, id string) (*RefreshRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil, ErrRefreshNotFound
	}
	out := rec
	return &out, nil
}

func (m *MemoryRefreshStore) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil
	}
	rec.Revoked = true
	rec.RevokedAt = time.Now()
	m.rows[id] = rec
	return nil
}

func (m *MemoryRefreshStore) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, rec := range m.rows {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			rec.RevokedAt = now
			m.rows[id] = rec
		}
	}
	return nil
}

func (m *MemoryRefreshStore) DeleteExpired(_ context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.rows {
		expired := rec.ExpiresAt.Before(expiredBefore)
		revokedLongAgo := rec.Revoked && !rec.RevokedAt.IsZero() && rec.RevokedAt.Before(revokedBefore)
		if expired || revokedLongAgo {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}
