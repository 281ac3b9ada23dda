package pgstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables the repositories expect. It is idempotent and
// intended for tests and small deployments; larger installations should
// run their own migration tooling against the same layout.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id               TEXT PRIMARY KEY,
	email            TEXT NOT NULL UNIQUE,
	nickname         TEXT NOT NULL DEFAULT '',
	password_hash    TEXT NOT NULL,
	roles            JSONB NOT NULL DEFAULT '[]',
	email_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	mfa_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
	mfa_secret       TEXT NOT NULL DEFAULT '',
	deactivated      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL,
	last_login_at    TIMESTAMPTZ,
	last_activity_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	revoked    BOOLEAN NOT NULL DEFAULT FALSE,
	revoked_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS refresh_tokens_user_id_idx ON refresh_tokens (user_id);
CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx ON refresh_tokens (expires_at);

CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	action     TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '',
	success    BOOLEAN NOT NULL,
	error_code TEXT NOT NULL DEFAULT '',
	ip         TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	metadata   JSONB
);

CREATE INDEX IF NOT EXISTS audit_events_user_id_idx ON audit_events (user_id, occurred_at);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
