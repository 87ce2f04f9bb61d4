// Package eventstore records the pipeline's build history.
//
// Every event published by the preview controller is appended to a SQLite
// table; a History projection keeps the latest build summaries in memory
// for the HTTP API and is rebuilt from the table at startup.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)
	Close() error
}
