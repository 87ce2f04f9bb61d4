package events

import "time"

// Event is implemented by everything published on the bus. Subscribing to
// Event receives all of them.
type Event interface {
	EventName() string
}

// StatusChanged is emitted whenever the pipeline status slot is written.
type StatusChanged struct {
	Status  string    `json:"status"`
	BuildID string    `json:"buildId,omitempty"`
	Dirty   bool      `json:"dirty"`
	At      time.Time `json:"at"`
}

// AnnotationsChanged is emitted after the editor annotations were replaced.
type AnnotationsChanged struct {
	Revision uint64    `json:"revision"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	YAML     bool      `json:"yaml"`
	At       time.Time `json:"at"`
}

// CursorMoved is emitted when the editor jumps to a line.
type CursorMoved struct {
	Line    int       `json:"line"`
	Focused bool      `json:"focused"`
	At      time.Time `json:"at"`
}

// BuildCompleted is emitted once per completed build, after classification.
// Stale is set when a newer build had already completed, which means this
// outcome replaced a fresher one.
type BuildCompleted struct {
	BuildID     string        `json:"buildId"`
	Seq         uint64        `json:"seq"`
	Channel     string        `json:"channel"`
	Status      string        `json:"status"`
	Errors      int           `json:"errors"`
	Warnings    int           `json:"warnings"`
	Duration    time.Duration `json:"duration"`
	Stale       bool          `json:"stale"`
	CompletedAt time.Time     `json:"completedAt"`
}

// BuildSkipped is emitted when a gate stops a change before building.
type BuildSkipped struct {
	Gate string    `json:"gate"`
	At   time.Time `json:"at"`
}

func (StatusChanged) EventName() string      { return "status" }
func (AnnotationsChanged) EventName() string { return "annotations" }
func (CursorMoved) EventName() string        { return "cursor" }
func (BuildCompleted) EventName() string     { return "build" }
func (BuildSkipped) EventName() string       { return "skipped" }
