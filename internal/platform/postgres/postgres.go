// Package postgres opens and migrates the database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"turnstile/internal/platform/config"
	"turnstile/pkg/platform/retry"
)

// Open connects to PostgreSQL and verifies the connection, retrying the ping
// with bounded exponential backoff. A cold database at deploy time should
// not kill the process on the first attempt.
func Open(ctx context.Context, cfg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent so repeated startups
// are safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id         UUID PRIMARY KEY,
		title      TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		form_id    TEXT,
		capacity   INTEGER NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id           UUID PRIMARY KEY,
		event_id     UUID NOT NULL REFERENCES events(id),
		form_id      TEXT NOT NULL,
		answers      JSONB NOT NULL DEFAULT '{}',
		status       TEXT NOT NULL,
		visitor_id   UUID,
		submitted_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS visitors (
		id              UUID PRIMARY KEY,
		registration_id UUID NOT NULL REFERENCES registrations(id),
		event_id        UUID NOT NULL REFERENCES events(id),
		token           TEXT NOT NULL UNIQUE,
		event_title     TEXT NOT NULL,
		event_location  TEXT NOT NULL DEFAULT '',
		event_start     TIMESTAMPTZ NOT NULL,
		event_end       TIMESTAMPTZ NOT NULL,
		status          TEXT NOT NULL,
		check_in_time   TIMESTAMPTZ,
		check_out_time  TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_event_id ON visitors (event_id)`,
	`CREATE TABLE IF NOT EXISTS scan_records (
		id            UUID PRIMARY KEY,
		visitor_id    UUID NOT NULL REFERENCES visitors(id),
		event_id      UUID NOT NULL REFERENCES events(id),
		scan_time     TIMESTAMPTZ NOT NULL,
		entry_type    TEXT NOT NULL,
		result_status TEXT NOT NULL,
		device_info   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_records_visitor_id ON scan_records (visitor_id)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id          BIGSERIAL PRIMARY KEY,
		category    TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		action      TEXT NOT NULL,
		visitor_id  UUID,
		event_id    UUID,
		email       TEXT,
		request_id  TEXT,
		detail      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_visitor_id ON audit_events (visitor_id)`,
}
