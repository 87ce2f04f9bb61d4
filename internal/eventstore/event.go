package eventstore

import "time"

// Event is one stored pipeline event.
type Event interface {
	ID() int64
	// BuildID is empty for events not tied to a build, such as gate skips.
	BuildID() string
	Type() string
	Timestamp() time.Time
	// Payload is the JSON encoding of the published event.
	Payload() []byte
	Metadata() map[string]string
}

// Record is the stored form of an Event.
type Record struct {
	EventID        int64             `json:"id"`
	EventBuildID   string            `json:"buildId,omitempty"`
	EventType      string            `json:"type"`
	EventTimestamp time.Time         `json:"timestamp"`
	EventPayload   []byte            `json:"-"`
	EventMetadata  map[string]string `json:"metadata,omitempty"`
}

func (r *Record) ID() int64                   { return r.EventID }
func (r *Record) BuildID() string             { return r.EventBuildID }
func (r *Record) Type() string                { return r.EventType }
func (r *Record) Timestamp() time.Time        { return r.EventTimestamp }
func (r *Record) Payload() []byte             { return r.EventPayload }
func (r *Record) Metadata() map[string]string { return r.EventMetadata }
