package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"lounge-pos-backend/internal/logger"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL CHECK (role IN ('Admin', 'Cashier')),
		password_hash TEXT NOT NULL,
		version       BIGINT NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		category            TEXT NOT NULL DEFAULT '',
		price               NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		unit                TEXT NOT NULL DEFAULT 'piece',
		quantity            INTEGER NOT NULL CHECK (quantity >= 0),
		low_stock_threshold INTEGER NOT NULL DEFAULT 0,
		version             BIGINT NOT NULL DEFAULT 1,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cafe_tables (
		id               TEXT PRIMARY KEY,
		table_no         INTEGER NOT NULL UNIQUE,
		name             TEXT NOT NULL DEFAULT '',
		capacity         INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Occupied')),
		current_order_id TEXT,
		version          BIGINT NOT NULL DEFAULT 1,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT cafe_tables_occupancy CHECK ((status = 'Occupied') = (current_order_id IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS rental_units (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL UNIQUE,
		unit_type          TEXT NOT NULL,
		hourly_rate        NUMERIC(12,2) NOT NULL CHECK (hourly_rate >= 0),
		status             TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Occupied', 'Maintenance')),
		current_session_id TEXT,
		version            BIGINT NOT NULL DEFAULT 1,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT rental_units_occupancy CHECK ((status = 'Occupied') = (current_session_id IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS rental_sessions (
		id               TEXT PRIMARY KEY,
		unit_id          TEXT NOT NULL REFERENCES rental_units(id),
		hourly_rate      NUMERIC(12,2) NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ,
		duration_minutes NUMERIC(12,2) NOT NULL DEFAULT 0,
		price            NUMERIC(12,2) NOT NULL DEFAULT 0,
		status           TEXT NOT NULL CHECK (status IN ('Active', 'Completed')),
		cashier_id       TEXT NOT NULL,
		version          BIGINT NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS rental_sessions_one_active_per_unit
		ON rental_sessions (unit_id) WHERE status = 'Active'`,
	`CREATE TABLE IF NOT EXISTS orders (
		id              TEXT PRIMARY KEY,
		table_id        TEXT,
		session_id      TEXT REFERENCES rental_sessions(id),
		items           JSONB NOT NULL,
		subtotal        NUMERIC(12,2) NOT NULL,
		tax             NUMERIC(12,2) NOT NULL,
		total           NUMERIC(12,2) NOT NULL,
		status          TEXT NOT NULL,
		customer_name   TEXT NOT NULL,
		customer_phone  TEXT NOT NULL DEFAULT '',
		customer_guests INTEGER NOT NULL DEFAULT 1,
		payment_method  TEXT NOT NULL,
		cashier_id      TEXT NOT NULL,
		order_date      TIMESTAMPTZ NOT NULL,
		paid_at         TIMESTAMPTZ,
		version         BIGINT NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_session_id ON orders (session_id)`,
	`CREATE INDEX IF NOT EXISTS orders_order_date ON orders (order_date DESC)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id              TEXT PRIMARY KEY,
		code            TEXT NOT NULL UNIQUE,
		order_id        TEXT,
		session_id      TEXT,
		table_snapshot  JSONB,
		items           JSONB NOT NULL,
		subtotal        NUMERIC(12,2) NOT NULL,
		tax             NUMERIC(12,2) NOT NULL,
		total           NUMERIC(12,2) NOT NULL,
		customer_name   TEXT NOT NULL,
		customer_phone  TEXT NOT NULL DEFAULT '',
		customer_guests INTEGER NOT NULL DEFAULT 1,
		payment_method  TEXT NOT NULL,
		status          TEXT NOT NULL CHECK (status IN ('Paid', 'Refunded', 'Cancelled')),
		cashier_id      TEXT NOT NULL,
		paid_at         TIMESTAMPTZ NOT NULL,
		version         BIGINT NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT payments_single_source CHECK (num_nonnulls(order_id, session_id) = 1)
	)`,
	`CREATE INDEX IF NOT EXISTS payments_paid_at ON payments (paid_at DESC)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema", "statements", len(schema))
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
