package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/events"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
)

// Recorder appends bus events to a Store and keeps a History current.
type Recorder struct {
	store   Store
	history *History
}

func NewRecorder(store Store, history *History) *Recorder {
	return &Recorder{store: store, history: history}
}

// Subscribe registers the recorder's subscription on bus. Call it before
// starting anything that publishes, then hand the channel to Run.
func (r *Recorder) Subscribe(bus *events.Bus) (<-chan events.Event, func()) {
	return events.Subscribe[events.Event](bus, 64)
}

// Run records events from ch until ctx is canceled or ch closes.
func (r *Recorder) Run(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			r.Record(ctx, evt)
		}
	}
}

// Record stores one event. Failures are logged; history is best effort.
func (r *Recorder) Record(ctx context.Context, evt events.Event) {
	// Cursor moves are too chatty to keep.
	if _, ok := evt.(events.CursorMoved); ok {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("Failed to encode event for history", slog.String("event", evt.EventName()), logfields.Error(err))
		return
	}

	var buildID string
	if b, ok := evt.(events.BuildCompleted); ok {
		buildID = b.BuildID
	}
	if err := r.store.Append(ctx, buildID, evt.EventName(), payload, nil); err != nil {
		slog.Warn("Failed to record event", slog.String("event", evt.EventName()), logfields.Error(err))
		return
	}
	r.history.Apply(&Record{
		EventBuildID:   buildID,
		EventType:      evt.EventName(),
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	})
}
