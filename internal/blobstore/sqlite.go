// ABOUTME: SQLite blob backend for single-node deployments
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite support
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	container  TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (container, key)
);
`

// SQLite is a Store backed by a single SQLite table
type SQLite struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens or creates a blob database at path
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// WAL lets readers proceed while a write is in flight
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return initSQLite(conn, path)
}

// OpenSQLiteInMemory creates an in-memory blob database (for testing)
func OpenSQLiteInMemory() (*SQLite, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// every pooled connection would otherwise get its own empty database
	conn.SetMaxOpenConns(1)
	return initSQLite(conn, ":memory:")
}

func initSQLite(conn *sql.DB, path string) (*SQLite, error) {
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{conn: conn, path: path}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO blobs (container, key, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(container, key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		container, key, data)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", container, key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validate(container, key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.conn.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE container = ? AND key = ?`, container, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", container, key, err)
	}
	return data, nil
}

// List reads the matching keys once ranging starts and before the first
// yield, so callers may issue other queries inside the loop.
func (s *SQLite) List(ctx context.Context, container, prefix string) iter.Seq2[string, error] {
	if err := validateContainer(container); err != nil {
		return fail(err)
	}
	return deferred(ctx, func(ctx context.Context) ([]string, error) {
		return s.keys(ctx, container, prefix)
	})
}

func (s *SQLite) keys(ctx context.Context, container, prefix string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT key FROM blobs
		WHERE container = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key`,
		container, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", container, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", container, err)
	}
	return keys, nil
}

func (s *SQLite) Delete(ctx context.Context, container, key string) error {
	if err := validate(container, key); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM blobs WHERE container = ? AND key = ?`, container, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", container, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", container, key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
