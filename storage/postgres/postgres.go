// Package postgres persists snapshots in a PostgreSQL table through go-pg.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"

	"github.com/nathoo/monovoice/storage"
)

// Options selects the database to connect to.
type Options struct {
	Addr     string
	User     string
	Password string
	Database string
}

// snapshotRow maps to the ledger_snapshots table.
type snapshotRow struct {
	tableName struct{} `pg:"ledger_snapshots"`

	Key       string    `pg:"key,pk"`
	Payload   []byte    `pg:"payload,notnull"`
	UpdatedAt time.Time `pg:"updated_at,notnull"`
}

// Store provides PostgreSQL-backed snapshot persistence.
type Store struct {
	db  *pg.DB
	now func() time.Time
}

// Open connects, pings and creates the snapshot table if it is missing.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("postgres address is required")
	}
	db := pg.Connect(&pg.Options{
		Addr:     opts.Addr,
		User:     opts.User,
		Password: opts.Password,
		Database: opts.Database,
	})
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	err := db.Model((*snapshotRow)(nil)).CreateTable(&orm.CreateTableOptions{IfNotExists: true})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	key, err := storage.CheckKey(key)
	if err != nil {
		return nil, err
	}
	row := &snapshotRow{Key: key}
	err = s.db.ModelContext(ctx, row).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return row.Payload, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	key, err := storage.CheckKey(key)
	if err != nil {
		return err
	}
	row := &snapshotRow{Key: key, Payload: data, UpdatedAt: s.now().UTC()}
	_, err = s.db.ModelContext(ctx, row).
		OnConflict("(key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Insert()
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
