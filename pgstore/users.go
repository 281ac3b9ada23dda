package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quizcraft/authcore"
)

// UserStore implements authcore.UserStore over PostgreSQL.
type UserStore struct {
	db DBTX
}

// NewUserStore constructs a user store bound to the given DBTX.
func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *authcore.User) error {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	query := `
		INSERT INTO users (id, email, nickname, password_hash, roles,
			email_verified, mfa_enabled, mfa_secret, deactivated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Nickname, user.PasswordHash, roles,
		user.EmailVerified, user.MFAEnabled, user.MFASecret, user.Deactivated, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*authcore.User, error) {
	query := userSelect + ` WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*authcore.User, error) {
	query := userSelect + ` WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	return s.execOnUser(ctx, query, id, hash)
}

func (s *UserStore) SetEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET email_verified = TRUE WHERE id = $1`
	return s.execOnUser(ctx, query, id)
}

func (s *UserStore) UpdateLoginInfo(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2, last_activity_at = $2 WHERE id = $1`
	return s.execOnUser(ctx, query, id, at)
}

const userSelect = `
	SELECT id, email, nickname, password_hash, roles,
		email_verified, mfa_enabled, mfa_secret, deactivated,
		created_at, last_login_at, last_activity_at
	FROM users`

func (s *UserStore) scanUser(row *sql.Row) (*authcore.User, error) {
	var (
		user       authcore.User
		roles      []byte
		lastLogin  sql.NullTime
		lastActive sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Email, &user.Nickname, &user.PasswordHash, &roles,
		&user.EmailVerified, &user.MFAEnabled, &user.MFASecret, &user.Deactivated,
		&user.CreatedAt, &lastLogin, &lastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(roles, &user.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if lastLogin.Valid {
		user.LastLoginAt = lastLogin.Time
	}
	if lastActive.Valid {
		user.LastActivityAt = lastActive.Time
	}
	return &user, nil
}

// execOnUser runs an UPDATE that targets a single user row and maps a zero
// row count to ErrUserNotFound.
func (s *UserStore) execOnUser(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}
