// Package storage provides the single-slot key-value state shared between
// the preview pipeline and its surroundings.
//
// Each key holds exactly one string value; a write replaces it (last write
// wins). Components observe a key with Watch and are called back with the new
// value whenever it changes.
package storage

import (
	"context"
	"sync"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// Well-known slot keys.
const (
	KeyDocument    = "yaml"
	KeyProgress    = "progress"
	KeyPreferences = "preferences"
)

// Listener receives the new value of a watched key.
type Listener func(value string)

// Store is an observable single-value-per-key store.
type Store interface {
	// Save replaces the value of key.
	Save(ctx context.Context, key, value string) error
	// Load returns the value of key, or a not_found ClassifiedError.
	Load(ctx context.Context, key string) (string, error)
	// Watch registers fn for future changes of key. The returned func unregisters it.
	Watch(key string, fn Listener) (func(), error)
	Close() error
}

// ErrNotFound builds the error returned by Load for a missing key.
func ErrNotFound(key string) error {
	return ferrors.NotFoundError("slot not found").WithContext("key", key).Build()
}

// IsNotFound reports whether err is a missing-slot error.
func IsNotFound(err error) bool {
	return ferrors.HasCategory(err, ferrors.CategoryNotFound)
}

// watchers is the in-process listener registry shared by the memory and sqlite stores.
type watchers struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string]map[uint64]Listener
}

func (w *watchers) add(key string, fn Listener) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.byKey == nil {
		w.byKey = map[string]map[uint64]Listener{}
	}
	if w.byKey[key] == nil {
		w.byKey[key] = map[uint64]Listener{}
	}
	w.nextID++
	id := w.nextID
	w.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.byKey[key], id)
			if len(w.byKey[key]) == 0 {
				delete(w.byKey, key)
			}
		})
	}
}

// notify calls every listener of key outside the registry lock.
func (w *watchers) notify(key, value string) {
	w.mu.RLock()
	fns := make([]Listener, 0, len(w.byKey[key]))
	for _, fn := range w.byKey[key] {
		fns = append(fns, fn)
	}
	w.mu.RUnlock()
	for _, fn := range fns {
		fn(value)
	}
}

func (w *watchers) clear() {
	w.mu.Lock()
	w.byKey = nil
	w.mu.Unlock()
}
