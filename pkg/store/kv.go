package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// persisted blob keys, one whole-value entry each
const (
	PostsKey  = "contrarian-brief-posts"
	ReportKey = "contrarian-brief-report"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// KV is a keyed blob store backed by SQLite. Values are whole-value reads
// and writes, no partial updates.
type KV struct {
	conn *sqlx.DB
}

// KVConfig represents blob store configuration
type KVConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewKV opens the blob store and creates its schema
func NewKV(cfg KVConfig) (*KV, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:brief.db?cache=shared&mode=rwc"
	}

	conn, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(kvSchema); err != nil {
		return nil, fmt.Errorf("init blob schema: %w", err)
	}

	return &KV{conn: conn}, nil
}

// Get returns the blob stored under key, or ok=false when the key is absent
func (kv *KV) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var data []byte
	err = kv.conn.GetContext(ctx, &data, "SELECT value FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the blob stored under key as a single atomic upsert.
// SQLite lock contention is retried with backoff.
func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, datetime('now'))
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		_, err := kv.conn.ExecContext(ctx, query, key, value)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("set blob %s: %w", key, err)}
		}
		return nil
	})
}

// Delete removes the blob stored under key, no-op when absent
func (kv *KV) Delete(ctx context.Context, key string) error {
	if _, err := kv.conn.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection
func (kv *KV) Close() error {
	return kv.conn.Close()
}

// criticalError wraps an error to signal the retrier to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }
func (e *criticalError) Unwrap() error { return e.err }

// isLockError detects transient SQLite lock contention
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
