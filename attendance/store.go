/*
store.go - Record Store interface and the single-writer Registry

PURPOSE:
  The Store is the only owner of persisted state. It reads and writes the
  whole Snapshot; there are no partial reads or writes. The Registry wraps
  a Store with the discipline every operation relies on:

    - Reads take a shared lock, load, and compute.
    - Mutations take the exclusive lock and run load -> mutate -> save
      as one step, so two concurrent registrations cannot both start
      from the same snapshot and lose each other's entry.

STORE CONTRACT:
  Load returns (EmptySnapshot(), nil) when nothing was ever saved.
  Save must be all-or-nothing from any reader's point of view.

IMPLEMENTATIONS:
  - attendance/store/memory.go: In-memory for testing
  - store/jsonfile: single JSON document on disk
  - store/sqlite: SQLite tables
  - store/postgres: PostgreSQL tables via pgx
*/
package attendance

import (
	"context"
	"log/slog"
	"sync"
)

// Store persists complete snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Registry is the entry point for every operation on the core.
// It holds no state besides the lock; every call re-reads the Store.
type Registry struct {
	store  Store
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates a Registry over store. A nil logger discards output.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{store: store, logger: logger}
}

// load reads the current snapshot. A read fault is logged and masked with
// the empty default; faulted tells mutating callers not to trust it.
func (r *Registry) load(ctx context.Context) (s Snapshot, faulted error) {
	s, err := r.store.Load(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "record store load failed, using empty snapshot", "error", err)
		return EmptySnapshot(), &StorageError{Kind: ErrStorageRead, Op: "load", Err: err}
	}
	return s.Normalize(), nil
}

// read loads the current snapshot under the shared lock.
func (r *Registry) read(ctx context.Context) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, _ := r.load(ctx)
	return s
}

// mutate runs load -> fn -> save under the exclusive lock. fn returns the
// next snapshot; an error from fn aborts without saving.
func (r *Registry) mutate(ctx context.Context, op string, fn func(Snapshot) (Snapshot, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, faulted := r.load(ctx)
	if faulted != nil {
		// Saving on top of the masked default would erase every collection.
		return faulted
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, next); err != nil {
		r.logger.ErrorContext(ctx, "record store save failed", "op", op, "error", err)
		return &StorageError{Kind: ErrStorageWrite, Op: op, Err: err}
	}
	return nil
}
