// Package kvstore provides the durable key-value snapshot store behind
// the application state. Values are whole-collection JSON snapshots
// addressed by fixed string keys; every write replaces the previous
// snapshot for its key.
package kvstore

import (
	"context"
	"errors"
)

// Storage keys in use. Each holds a JSON snapshot of one collection,
// except KeySession which holds the logged-in username.
const (
	KeyUsers         = "users"
	KeyVideos        = "videos"
	KeySession       = "loggedInUser"
	KeyConversations = "conversations"
)

// ErrNotFound indicates no usable snapshot exists for the key. Stores
// report corrupt snapshots the same way: a value that cannot be decoded
// is treated as absent, never surfaced as a parse failure.
var ErrNotFound = errors.New("snapshot not found")

// Store persists JSON snapshots by key.
type Store interface {
	// Save durably serializes value under key, replacing any previous
	// snapshot.
	Save(ctx context.Context, key string, value any) error
	// Load decodes the snapshot stored under key into dest. It returns
	// ErrNotFound when the key is absent or its contents are corrupt.
	Load(ctx context.Context, key string, dest any) error
	// Delete removes the snapshot stored under key. Deleting an absent
	// key is not an error.
	Delete(ctx context.Context, key string) error
}
