package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver
	_ "modernc.org/sqlite"             // "sqlite" driver
)

// Config for opening the store.
type Config struct {
	DSN         string
	DialTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	id                TEXT PRIMARY KEY,
	merchant_name     TEXT NOT NULL DEFAULT '',
	purchase_datetime TEXT,
	subtotal          REAL,
	tax               REAL,
	total             REAL,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_receipts_datetime_total
	ON receipts (purchase_datetime, total);
CREATE TABLE IF NOT EXISTS receipt_items (
	id          TEXT PRIMARY KEY,
	receipt_id  TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	description TEXT NOT NULL,
	qty         REAL,
	unit_price  REAL,
	line_total  REAL
);
CREATE INDEX IF NOT EXISTS ix_receipt_items_receipt
	ON receipt_items (receipt_id, position);
`

// Open connects to the store and ensures the schema exists. A postgres://
// DSN goes through the pgx driver; anything else is treated as a local
// sqlite file.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver = "pgx"
	}
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	if driver == "sqlite" && strings.Contains(cfg.DSN, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// isUniqueViolation recognizes a unique-index conflict from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "SQLSTATE 23505") || // pgx
		strings.Contains(msg, "duplicate key value")
}
