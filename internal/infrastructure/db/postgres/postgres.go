package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings required to open a PostgreSQL pool.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// schema is applied idempotently on startup.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id            BIGSERIAL    PRIMARY KEY,
	name          VARCHAR(100) NOT NULL,
	national_id   VARCHAR(11)  NOT NULL,
	email         VARCHAR(100) NOT NULL,
	birth_date    DATE         NOT NULL,
	phone         VARCHAR(11)  NOT NULL,
	password_hash VARCHAR(100) NOT NULL,
	role          SMALLINT     NOT NULL,
	CONSTRAINT customers_national_id_key UNIQUE (national_id),
	CONSTRAINT customers_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS customer_events (
	id           BIGSERIAL   PRIMARY KEY,
	type         VARCHAR(32) NOT NULL,
	customer_id  BIGINT      NOT NULL,
	actor        VARCHAR(100),
	occurred_at  TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Open connects to PostgreSQL through the pgx driver and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the customer and event tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
