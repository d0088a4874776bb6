// Package storage provides keyed binary storage for locally uploaded
// video payloads. Blobs share the video identifier space: a video
// flagged as locally stored must have a blob under its id.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates no blob exists for the requested id. Querying
// an id that was never stored is expected during rehydration and is not
// an operational failure.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists binary payloads keyed by video id.
type BlobStore interface {
	// Put stores the payload under id, replacing any previous blob.
	Put(ctx context.Context, id int64, r io.Reader) error
	// Get opens the payload stored under id, or ErrNotFound.
	Get(ctx context.Context, id int64) (io.ReadCloser, error)
	// Delete removes the payload stored under id. Posts are never
	// deleted today; the operation exists for completeness.
	Delete(ctx context.Context, id int64) error
}

// Exists reports whether a blob is present for id.
func Exists(ctx context.Context, store BlobStore, id int64) bool {
	rc, err := store.Get(ctx, id)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}
