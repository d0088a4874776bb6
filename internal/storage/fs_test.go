package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStorePutGet(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	ctx := context.Background()

	if err := store.Put(ctx, 42, strings.NewReader("payload-bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "payload-bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestFSStoreGetAbsent(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	if _, err := store.Get(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestFSStorePutReplaces(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	ctx := context.Background()

	if err := store.Put(ctx, 7, strings.NewReader("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, 7, strings.NewReader("second")); err != nil {
		t.Fatalf("put replacement: %v", err)
	}

	rc, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "second" {
		t.Fatalf("expected replacement payload, got %q", data)
	}
}

func TestFSStoreDelete(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	ctx := context.Background()

	if err := store.Put(ctx, 5, strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting absent blob, got %v", err)
	}
}

func TestExists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if Exists(ctx, store, 1) {
		t.Fatal("expected absent blob")
	}

	if err := store.Put(ctx, 1, strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !Exists(ctx, store, 1) {
		t.Fatal("expected blob to exist")
	}
}
