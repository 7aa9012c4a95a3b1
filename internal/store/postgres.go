package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresBackend keeps values in a single key/value table
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend connects and ensures the kv_store table exists
func NewPostgresBackend(databaseURL string) (*PostgresBackend, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

// Get retrieves the value stored under key
func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := p.db.GetContext(ctx, &value, "SELECT value FROM kv_store WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Put upserts the value stored under key
func (p *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(value))
	return err
}

// Close closes the database connection
func (p *PostgresBackend) Close() error {
	return p.db.Close()
}
