package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quizcraft/authcore/token"
)

// RefreshStore implements token.RefreshStore over PostgreSQL.
type RefreshStore struct {
	db DBTX
}

// NewRefreshStore constructs a refresh token store bound to the given DBTX.
func NewRefreshStore(db DBTX) *RefreshStore {
	return &RefreshStore{db: db}
}

func (s *RefreshStore) Create(ctx context.Context, rec *token.RefreshRecord) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.ExpiresAt, rec.Revoked, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *RefreshStore) Find(ctx context.Context, id string) (*token.RefreshRecord, error) {
	query := `
		SELECT id, user_id, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE id = $1
	`
	rec := &token.RefreshRecord{}
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&rec.ID, &rec.UserID, &rec.ExpiresAt, &rec.Revoked, &revokedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, token.ErrRefreshNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		rec.RevokedAt = revokedAt.Time
	}
	return rec, nil
}

// Revoke marks a single token revoked. A missing id is a no-op.
func (s *RefreshStore) Revoke(ctx context.Context, id string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW() WHERE id = $1 AND NOT revoked`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *RefreshStore) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW() WHERE user_id = $1 AND NOT revoked`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes rows past their expiry plus rows revoked before
// the retention cutoff.
func (s *RefreshStore) DeleteExpired(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (revoked AND revoked_at < $2)
	`
	res, err := s.db.ExecContext(ctx, query, expiredBefore, revokedBefore)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
