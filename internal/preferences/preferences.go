// Package preferences holds user preferences persisted in the "preferences" slot.
package preferences

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

// Values is the persisted shape of the preferences slot.
type Values struct {
	LiveRender bool `json:"liveRender"`
}

// Defaults applies when the slot is empty.
func Defaults() Values { return Values{LiveRender: true} }

// Preferences caches the slot so reads never block, and follows external writes.
type Preferences struct {
	store  storage.Store
	mu     sync.RWMutex
	values Values
	stop   func()
}

// Load reads the current preferences from store and watches for changes.
// A missing slot yields defaults.
func Load(ctx context.Context, store storage.Store, defaults Values) (*Preferences, error) {
	p := &Preferences{store: store, values: defaults}

	raw, err := store.Load(ctx, storage.KeyPreferences)
	switch {
	case err == nil:
		if v, ok := decode(raw); ok {
			p.values = v
		}
	case !storage.IsNotFound(err):
		return nil, err
	}

	stop, err := store.Watch(storage.KeyPreferences, func(raw string) {
		v, ok := decode(raw)
		if !ok {
			return
		}
		p.mu.Lock()
		p.values = v
		p.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	p.stop = stop
	return p, nil
}

func decode(raw string) (Values, bool) {
	var v Values
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Warn("Ignoring malformed preferences", logfields.Slot(storage.KeyPreferences), logfields.Error(err))
		return Values{}, false
	}
	return v, true
}

// LiveRender reports whether every document change rebuilds immediately.
func (p *Preferences) LiveRender() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values.LiveRender
}

// SetLiveRender persists the live-render preference.
func (p *Preferences) SetLiveRender(ctx context.Context, on bool) error {
	p.mu.Lock()
	p.values.LiveRender = on
	v := p.values
	p.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode preferences").Build()
	}
	return p.store.Save(ctx, storage.KeyPreferences, string(raw))
}

// Close stops following the slot.
func (p *Preferences) Close() {
	if p.stop != nil {
		p.stop()
	}
}
