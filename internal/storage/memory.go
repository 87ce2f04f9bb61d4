package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps slots in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers watchers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Save stores value and notifies watchers when it differs from the previous one.
func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	prev, existed := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	if !existed || prev != value {
		s.watchers.notify(key, value)
	}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound(key)
	}
	return v, nil
}

func (s *MemoryStore) Watch(key string, fn Listener) (func(), error) {
	return s.watchers.add(key, fn), nil
}

func (s *MemoryStore) Close() error {
	s.watchers.clear()
	return nil
}
