package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the tables the repositories depend on. Every statement is
// idempotent, so each binary applies it unconditionally at startup.
const schema = `
	CREATE TABLE IF NOT EXISTS profiles (
		id              UUID PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL UNIQUE,
		account_type    TEXT NOT NULL CHECK (account_type IN ('admin', 'rep')),
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash   TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deals (
		id         UUID PRIMARY KEY,
		rep_id     UUID NOT NULL REFERENCES profiles (id),
		value      BIGINT NOT NULL CHECK (value > 0),
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals (created_at);
	CREATE INDEX IF NOT EXISTS idx_deals_rep_created ON deals (rep_id, created_at);

	CREATE TABLE IF NOT EXISTS quarter_totals (
		rep_id        UUID NOT NULL REFERENCES profiles (id),
		rep_name      TEXT NOT NULL,
		quarter_start TIMESTAMPTZ NOT NULL,
		total_value   BIGINT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (rep_id, quarter_start)
	);
`

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
