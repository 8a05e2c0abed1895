package cache

import (
	"context"
	"sync"
)

// MemoryStore is the default in-process cache backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore constructs an empty in-process cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	snapshot := make([]byte, len(value))
	copy(snapshot, value)
	return snapshot, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	snapshot := make([]byte, len(value))
	copy(snapshot, value)
	s.mu.Lock()
	s.entries[key] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
