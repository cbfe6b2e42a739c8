// Package repository is the single access point for crime records. Reads
// pass through to the store as live handles; writes are queued onto one
// worker goroutine so they never run on the caller's goroutine and never
// run concurrently with each other.
//
// A Repository is constructed explicitly with New and handed to the code
// that needs it. There is no package-level instance.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/criminalintent/internal/slogutil"
	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// Repository wraps an attached Database and the write worker.
type Repository struct {
	dao    types.CrimeDAO
	queue  *worker.Queue
	logger *slog.Logger
}

// New builds a repository over db, which must already be attached. It
// returns ErrDetached otherwise, so use before initialization fails at
// construction rather than on first access. cfg.QueueSize sizes the write
// queue.
func New(db types.Database, cfg types.Config, logger *slog.Logger) (*Repository, error) {
	logger = slogutil.OrDiscard(logger)

	dao, err := db.Crimes()
	if err != nil {
		return nil, fmt.Errorf("opening crime repository: %w", err)
	}

	q := worker.NewQueue(worker.Config{QueueSize: cfg.GetQueueSize()}, logger.With("component", "writer"))
	q.Start()

	return &Repository{
		dao:    dao,
		queue:  q,
		logger: logger,
	}, nil
}

// Crimes returns the live list of every record in insertion order.
func (r *Repository) Crimes() *live.Data[[]types.Crime] {
	return r.dao.Crimes()
}

// Crime returns a live handle on one record, nil while absent.
func (r *Repository) Crime(id uuid.UUID) *live.Data[*types.Crime] {
	return r.dao.Crime(id)
}

// List returns a snapshot of every record.
func (r *Repository) List(ctx context.Context) ([]types.Crime, error) {
	return r.dao.List(ctx)
}

// Get returns one record, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (types.Crime, error) {
	return r.dao.Get(ctx, id)
}

// AddCrime queues an insert of c. The future fails with ErrDuplicateID if
// the id is already stored.
func (r *Repository) AddCrime(c types.Crime) *worker.Future {
	return r.queue.Submit("add crime "+c.ID.String(), func(ctx context.Context) error {
		return r.dao.Insert(ctx, c)
	})
}

// UpdateCrime queues an update of an existing record. The future fails
// with ErrNotFound if no row has c's id.
func (r *Repository) UpdateCrime(c types.Crime) *worker.Future {
	return r.queue.Submit("update crime "+c.ID.String(), func(ctx context.Context) error {
		return r.dao.Update(ctx, c)
	})
}

// SaveCrime queues a full-row upsert of c.
func (r *Repository) SaveCrime(c types.Crime) *worker.Future {
	return r.queue.Submit("save crime "+c.ID.String(), func(ctx context.Context) error {
		return r.dao.Upsert(ctx, c)
	})
}

// Stats reports write queue counters.
func (r *Repository) Stats() worker.Stats {
	return r.queue.Stats()
}

// Close waits for queued writes to finish and stops the worker. It does
// not detach the database; the caller owns that.
func (r *Repository) Close(ctx context.Context) error {
	if err := r.queue.Stop(ctx); err != nil {
		return fmt.Errorf("stopping write queue: %w", err)
	}
	r.logger.Debug("repository closed", "processed", r.queue.Stats().Processed)
	return nil
}
