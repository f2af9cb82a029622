package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// UpdateFunc receives the current value of a key (nil when absent) and
// returns the value to write back.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the persistence interface: whole-document reads and writes keyed
// by name. Writes replace the document atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Update performs a read-modify-write of key while holding the store's
	// write lock. If fn returns an error nothing is written.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// Open returns a store for the given driver ("json" or "sqlite").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "json":
		return NewFileStore(path)
	case "sqlite":
		return New(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps Update transactions serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, s.db, key)
}

func (s *SQLiteStore) get(ctx context.Context, q sqlx.QueryerContext, key string) ([]byte, error) {
	var value []byte
	err := sqlx.GetContext(ctx, q, &value, "SELECT value FROM documents WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	return s.put(ctx, s.db, key, data)
}

func (s *SQLiteStore) put(ctx context.Context, e sqlx.ExecerContext, key string, data []byte) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", key, err)
	}
	defer tx.Rollback()

	current, err := s.get(ctx, tx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if err := s.put(ctx, tx, key, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update %s: %w", key, err)
	}
	return nil
}
