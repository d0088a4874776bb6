package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// NewMemoryStore returns a BlobStore backed by an in-memory map, for
// tests and ephemeral runs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[int64][]byte)}
}

// MemoryStore implements BlobStore without touching the filesystem.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[int64][]byte

	// PutErr, when set, is returned by every Put call.
	PutErr error
}

// Put stores the payload bytes under id.
func (s *MemoryStore) Put(_ context.Context, id int64, r io.Reader) error {
	if s.PutErr != nil {
		return s.PutErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[id] = data
	s.mu.Unlock()
	return nil
}

// Get returns a reader over the stored payload for id.
func (s *MemoryStore) Get(_ context.Context, id int64) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the payload stored under id.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, id)
	return nil
}

// Len reports how many blobs are stored. Useful for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ BlobStore = (*MemoryStore)(nil)
