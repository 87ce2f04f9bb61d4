package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the event database. Use ":memory:" in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "could not open build history database").
			WithContext("path", dbPath).Build()
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to initialize build history schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_build_id ON events(build_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds an event. Timestamps are stored with millisecond precision.
func (s *SQLiteStore) Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if len(metadata) > 0 {
		var err error
		if metadataJSON, err = json.Marshal(metadata); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryHistory, "failed to marshal event metadata").Build()
		}
	}
	if payload == nil {
		payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		buildID, eventType, time.Now().UnixMilli(), payload, metadataJSON,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "failed to append event").
			WithContext("event_type", eventType).Build()
	}
	return nil
}

const selectEvents = "SELECT id, build_id, event_type, timestamp, payload, metadata FROM events"

func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectEvents+" WHERE build_id = ? ORDER BY id", buildID)
}

// GetRange returns events with start <= timestamp <= end, oldest first.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, selectEvents+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id", start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, selectEvents+" ORDER BY id DESC LIMIT ?", limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to query events").Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			r            Record
			millis       int64
			metadataJSON []byte
		)
		if err := rows.Scan(&r.EventID, &r.EventBuildID, &r.EventType, &millis, &r.EventPayload, &metadataJSON); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to scan event row").Build()
		}
		r.EventTimestamp = time.UnixMilli(millis)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &r.EventMetadata); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to unmarshal event metadata").Build()
			}
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to iterate event rows").Build()
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
