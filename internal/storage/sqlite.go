package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// SQLiteStore persists slots in a SQLite database so status and document
// survive restarts. Watchers are notified in-process only.
type SQLiteStore struct {
	db       *sql.DB
	mu       sync.Mutex
	watchers watchers
}

// NewSQLiteStore opens (or creates) the database at dbPath. Use ":memory:" in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "open sqlite database").
			WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "initialize slot schema").Build()
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	return err
}

// Save upserts value and notifies watchers when it changed.
func (s *SQLiteStore) Save(ctx context.Context, key, value string) error {
	changed, err := s.upsert(ctx, key, value)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "save slot").WithContext("key", key).Build()
	}
	if changed {
		s.watchers.notify(key, value)
	}
	return nil
}

func (s *SQLiteStore) upsert(ctx context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var prev string
	err = tx.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&prev)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return !existed || prev != value, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound(key)
	}
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryStorage, "load slot").WithContext("key", key).Build()
	}
	return v, nil
}

func (s *SQLiteStore) Watch(key string, fn Listener) (func(), error) {
	return s.watchers.add(key, fn), nil
}

func (s *SQLiteStore) Close() error {
	s.watchers.clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
