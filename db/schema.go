package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaTemplate is formatted with the target schema name for every %[1]s.
const schemaTemplate = `
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.channel_project_mappings (
	id           TEXT PRIMARY KEY,
	channel_id   TEXT NOT NULL UNIQUE,
	channel_name TEXT NOT NULL DEFAULT '',
	project_key  VARCHAR(10) NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS %[1]s.invocation_logs (
	id               TEXT PRIMARY KEY,
	timestamp        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	channel_id       TEXT NOT NULL,
	channel_name     TEXT NOT NULL DEFAULT '',
	user_name        TEXT NOT NULL DEFAULT '',
	command_text     TEXT NOT NULL DEFAULT '',
	request_payload  TEXT NOT NULL DEFAULT '',
	response_payload TEXT NOT NULL DEFAULT '',
	response_code    INTEGER NOT NULL DEFAULT 200,
	execution_time   NUMERIC(10, 4) NOT NULL DEFAULT 0,
	status           VARCHAR(20) NOT NULL DEFAULT 'success',
	error_message    TEXT
);

CREATE INDEX IF NOT EXISTS invocation_logs_channel_idx ON %[1]s.invocation_logs (channel_id);
CREATE INDEX IF NOT EXISTS invocation_logs_timestamp_idx ON %[1]s.invocation_logs (timestamp);
CREATE INDEX IF NOT EXISTS invocation_logs_status_idx ON %[1]s.invocation_logs (status);
`

// EnsureSchema creates the tables used by the relay if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schemaTemplate, schema)); err != nil {
		return fmt.Errorf("failed to ensure database schema %s: %w", schema, err)
	}
	return nil
}
