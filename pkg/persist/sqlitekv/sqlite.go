// Package sqlitekv is a persist.Backend on top of a single SQLite table.
package sqlitekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Backend stores payloads in SQLite.
type Backend struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path, creating the table if needed.
func Open(path string) (*Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitekv: storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitekv: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitekv: create schema: %w", err)
	}
	return &Backend{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (b *Backend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

// Load returns the value stored under key.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if b == nil || b.sqlDB == nil {
		return nil, false, fmt.Errorf("sqlitekv: storage is not configured")
	}
	var value []byte
	err := b.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlitekv: get %q: %w", key, err)
	}
	return value, true, nil
}

// Save upserts the value stored under key.
func (b *Backend) Save(ctx context.Context, key string, value []byte) error {
	if b == nil || b.sqlDB == nil {
		return fmt.Errorf("sqlitekv: storage is not configured")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := b.sqlDB.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, b.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlitekv: put %q: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (b *Backend) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var millis int64
	err := b.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM kv_entries WHERE key = ?`, key).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlitekv: get %q: %w", key, err)
	}
	return time.UnixMilli(millis).UTC(), true, nil
}
