package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// FSStore keeps blobs as one file per id inside a directory. It is the
// default backend when no object store is configured.
type FSStore struct {
	dir string
}

// NewFSStore constructs a filesystem blob store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Put streams the payload into a temporary file and renames it into
// place so readers never observe a partial blob.
func (s *FSStore) Put(ctx context.Context, id int64, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "blob.*.tmp")
	if err != nil {
		return fmt.Errorf("create blob temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write blob %d: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close blob %d: %w", id, err)
	}

	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit blob %d: %w", id, err)
	}

	return nil
}

// Get opens the blob file for id.
func (s *FSStore) Get(ctx context.Context, id int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob %d: %w", id, err)
	}
	return f, nil
}

// Delete removes the blob file for id if present.
func (s *FSStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %d: %w", id, err)
	}
	return nil
}

func (s *FSStore) path(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+".bin")
}

var _ BlobStore = (*FSStore)(nil)
