package kvstore

import (
	"context"
	"encoding/json"
	"sync"
)

// NewMemoryStore returns a Store backed by an in-memory map. It round
// trips values through JSON so tests exercise the same encode/decode
// path as the durable stores.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// MemoryStore implements Store for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte

	// SaveErr, when set, is returned by every Save call. Used to test
	// best-effort persistence paths.
	SaveErr error
}

// Save stores the JSON encoding of value under key.
func (s *MemoryStore) Save(_ context.Context, key string, value any) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items[key] = data
	s.mu.Unlock()
	return nil
}

// Load decodes the stored bytes for key into dest.
func (s *MemoryStore) Load(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	data, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return ErrNotFound
	}
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites the stored bytes for key with malformed JSON.
// Useful for exercising corruption-as-absence behavior in tests.
func (s *MemoryStore) Corrupt(key string) {
	s.mu.Lock()
	s.items[key] = []byte("{not json")
	s.mu.Unlock()
}

// Has reports whether a snapshot exists for key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

var _ Store = (*MemoryStore)(nil)
