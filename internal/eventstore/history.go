package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/events"
)

// BuildSummary is the read model of one completed build.
type BuildSummary struct {
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

// History keeps the most recent build summaries, newest first.
type History struct {
	mu      sync.RWMutex
	store   Store
	builds  []BuildSummary
	skips   map[string]int
	maxSize int
}

func NewHistory(store Store, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &History{store: store, maxSize: maxSize, skips: map[string]int{}}
}

// Rebuild reloads the projection from the newest stored events.
func (h *History) Rebuild(ctx context.Context) error {
	recent, err := h.store.Recent(ctx, h.maxSize*4)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.builds = nil
	h.skips = map[string]int{}
	for _, e := range slices.Backward(recent) {
		h.applyLocked(e)
	}
	return nil
}

// Apply folds one stored event into the projection.
func (h *History) Apply(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applyLocked(e)
}

func (h *History) applyLocked(e Event) {
	switch e.Type() {
	case events.BuildCompleted{}.EventName():
		var b events.BuildCompleted
		if err := json.Unmarshal(e.Payload(), &b); err != nil || b.BuildID == "" {
			return
		}
		h.builds = append([]BuildSummary{{
			BuildID:     b.BuildID,
			Seq:         b.Seq,
			Channel:     b.Channel,
			Status:      b.Status,
			Errors:      b.Errors,
			Warnings:    b.Warnings,
			Duration:    b.Duration,
			Stale:       b.Stale,
			CompletedAt: b.CompletedAt,
		}}, h.builds...)
		if len(h.builds) > h.maxSize {
			h.builds = h.builds[:h.maxSize]
		}
	case events.BuildSkipped{}.EventName():
		var s events.BuildSkipped
		if err := json.Unmarshal(e.Payload(), &s); err == nil {
			h.skips[s.Gate]++
		}
	}
}

// Builds returns the build summaries, newest first.
func (h *History) Builds() []BuildSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.builds)
}

// Last returns the most recently completed build.
func (h *History) Last() (BuildSummary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.builds) == 0 {
		return BuildSummary{}, false
	}
	return h.builds[0], true
}

// Skips returns how many changes each gate stopped.
func (h *History) Skips() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.skips))
	for k, v := range h.skips {
		out[k] = v
	}
	return out
}
