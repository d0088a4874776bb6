package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists snapshots as one JSON file per key inside a
// directory. Writes go through a temporary file followed by a rename so
// a crash never leaves a half-written snapshot behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore constructs a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create kv directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the JSON encoding of value to the key's file.
func (s *FileStore) Save(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot %q: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit snapshot %q: %w", key, err)
	}

	return nil
}

// Load reads and decodes the key's file. Missing and malformed files
// both report ErrNotFound so the caller falls back to its default.
func (s *FileStore) Load(ctx context.Context, key string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path(key))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read snapshot %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return ErrNotFound
	}

	return nil
}

// Delete removes the key's file if present.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

var _ Store = (*FileStore)(nil)
