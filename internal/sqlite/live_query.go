package sqlite

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/criminalintent/pkg/live"
)

// liveQuery keeps a live.Data in step with a table. While the Data has
// observers, a refresher goroutine re-runs the query after every
// invalidation of the table; refreshes are serialized and coalesced.
type liveQuery[T any] struct {
	backend *Backend
	table   string
	name    string
	query   func(ctx context.Context) (T, error)
	logger  *slog.Logger

	data *live.MutableData[T]

	mu         sync.Mutex
	cancel     context.CancelFunc
	unregister func()

	// gen changes on every start and stop. A refresher only publishes while
	// gen still holds the value it was started with; setMu makes that check
	// and the Set one step.
	gen   atomic.Uint64
	setMu sync.Mutex
}

func newLiveQuery[T any](b *Backend, table, name string, query func(ctx context.Context) (T, error)) *live.Data[T] {
	return buildLiveQuery(b, table, name, query).data.AsData()
}

func buildLiveQuery[T any](b *Backend, table, name string, query func(ctx context.Context) (T, error)) *liveQuery[T] {
	q := &liveQuery[T]{
		backend: b,
		table:   table,
		name:    name,
		query:   query,
		logger:  b.logger,
	}
	q.data = live.NewMutableData[T](live.Lifecycle{
		OnActive:   q.start,
		OnInactive: q.stop,
	})
	return q
}

func (q *liveQuery[T]) start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	gen := q.gen.Add(1)
	ctx, cancel := q.backend.liveContext()
	kick := make(chan struct{}, 1)
	q.cancel = cancel
	wake := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	q.unregister = q.backend.tracker.register(q.table, wake)

	wake()
	go q.refresh(ctx, gen, kick)
}

func (q *liveQuery[T]) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.gen.Add(1)
	if q.unregister != nil {
		q.unregister()
		q.unregister = nil
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}

func (q *liveQuery[T]) refresh(ctx context.Context, gen uint64, kick <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
		}

		v, err := q.query(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("live query failed", "query", q.name, "error", err)
			continue
		}
		if ctx.Err() != nil || !q.publish(gen, v) {
			return
		}
	}
}

// publish sets v unless a later start or stop has superseded gen.
func (q *liveQuery[T]) publish(gen uint64, v T) bool {
	q.setMu.Lock()
	defer q.setMu.Unlock()
	if q.gen.Load() != gen {
		return false
	}
	q.data.Set(v)
	return true
}
