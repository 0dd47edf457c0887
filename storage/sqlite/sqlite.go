// Package sqlite persists snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/monovoice/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS ledger_snapshots (
	snapshot_key TEXT PRIMARY KEY,
	payload_json BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
)`

// Store provides SQLite-backed snapshot persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and creates the snapshot table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	key, err := storage.CheckKey(key)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT payload_json FROM ledger_snapshots WHERE snapshot_key = ?`, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key, err := storage.CheckKey(key)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO ledger_snapshots (snapshot_key, payload_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(snapshot_key) DO UPDATE SET
		    payload_json = excluded.payload_json,
		    updated_at = excluded.updated_at`,
		key, data, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}
