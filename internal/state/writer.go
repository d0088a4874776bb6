package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reeltalk/reeltalk/internal/kvstore"
)

const snapshotWriteTimeout = 10 * time.Second

// snapshotWriter persists whole-collection snapshots in the background.
// Writes for a key are serialized, and a snapshot enqueued while an
// earlier one for the same key is still pending supersedes it: only the
// latest snapshot per key ever reaches the store. Failures are logged
// and never propagate back to the mutation that triggered the write.
type snapshotWriter struct {
	store  kvstore.Store
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  map[string]pendingWrite
	order    []string
	inFlight int
	closed   bool

	wg sync.WaitGroup
}

type pendingWrite struct {
	snapshot any
	remove   bool
}

func newSnapshotWriter(store kvstore.Store, logger *slog.Logger) *snapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}

	w := &snapshotWriter{
		store:   store,
		logger:  logger,
		pending: make(map[string]pendingWrite),
	}
	w.cond = sync.NewCond(&w.mu)

	w.wg.Add(1)
	go w.run()

	return w
}

// enqueue schedules snapshot to be written under key. A nil snapshot
// schedules removal of the key instead.
func (w *snapshotWriter) enqueue(key string, snapshot any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if _, exists := w.pending[key]; !exists {
		w.order = append(w.order, key)
	}
	w.pending[key] = pendingWrite{snapshot: snapshot, remove: snapshot == nil}
	w.cond.Broadcast()
}

// flush blocks until every pending write has settled.
func (w *snapshotWriter) flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.mu.Lock()
		for len(w.pending) > 0 || w.inFlight > 0 {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// shutdown drains outstanding writes and stops the worker.
func (w *snapshotWriter) shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.cond.Broadcast()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *snapshotWriter) run() {
	defer w.wg.Done()

	w.mu.Lock()
	for {
		for len(w.pending) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.pending) == 0 && w.closed {
			w.mu.Unlock()
			return
		}

		key := w.order[0]
		w.order = w.order[1:]
		write := w.pending[key]
		delete(w.pending, key)
		w.inFlight++
		w.mu.Unlock()

		w.write(key, write)

		w.mu.Lock()
		w.inFlight--
		w.cond.Broadcast()
	}
}

func (w *snapshotWriter) write(key string, write pendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()

	var err error
	if write.remove {
		err = w.store.Delete(ctx, key)
	} else {
		err = w.store.Save(ctx, key, write.snapshot)
	}
	if err != nil {
		w.logger.Error("persist snapshot", "key", key, "error", err)
	}
}
