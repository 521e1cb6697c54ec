// Package buildstate persists rule fingerprints between runs so the build
// engine can skip rules whose inputs have not changed.
package buildstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_state (
	rule_key    TEXT PRIMARY KEY,
	rule_id     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

// Store is a SQLite-backed fingerprint store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the state database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	// Rules finish on several workers; serialize writes through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Fingerprint returns the stored fingerprint for key, if any.
func (s *Store) Fingerprint(ctx context.Context, key string) (string, bool, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM rule_state WHERE rule_key = ?`, key).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading fingerprint: %w", err)
	}
	return fp, true, nil
}

// Record stores the fingerprint of a successful rule run.
func (s *Store) Record(ctx context.Context, key, ruleID, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_state (rule_key, rule_id, fingerprint, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(rule_key) DO UPDATE SET
			rule_id = excluded.rule_id,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at`,
		key, ruleID, fingerprint, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording fingerprint: %w", err)
	}
	return nil
}

// Forget removes the stored fingerprint for key.
func (s *Store) Forget(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rule_state WHERE rule_key = ?`, key); err != nil {
		return fmt.Errorf("forgetting fingerprint: %w", err)
	}
	return nil
}
