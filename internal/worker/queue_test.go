package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartedQueue(t *testing.T) *Queue {
	t.Helper()
	q := NewQueue(DefaultConfig(), nil)
	q.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

func TestQueue_RunsInSubmissionOrder(t *testing.T) {
	q := newStartedQueue(t)

	var mu sync.Mutex
	var order []int
	var futures []*Future
	for i := 0; i < 50; i++ {
		i := i
		futures = append(futures, q.Submit("append", func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, f := range futures {
		require.NoError(t, f.Wait(ctx))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestQueue_NeverRunsTasksConcurrently(t *testing.T) {
	q := newStartedQueue(t)

	var running, maxRunning atomic.Int32
	var futures []*Future
	for i := 0; i < 20; i++ {
		futures = append(futures, q.Submit("probe", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				m := maxRunning.Load()
				if n <= m || maxRunning.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return nil
		}))
	}
	for _, f := range futures {
		<-f.Done()
	}
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestQueue_SubmitDoesNotBlock(t *testing.T) {
	q := newStartedQueue(t)

	release := make(chan struct{})
	q.Submit("block", func(ctx context.Context) error {
		<-release
		return nil
	})

	start := time.Now()
	for i := 0; i < 1000; i++ {
		q.Submit("noop", func(ctx context.Context) error { return nil })
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Greater(t, q.Stats().Pending, 0)
	close(release)
}

func TestQueue_ErrorReachesFuture(t *testing.T) {
	q := newStartedQueue(t)
	boom := errors.New("disk full")

	f := q.Submit("write", func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := f.Wait(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, f.Err(), boom)

	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueue_PanicIsRecovered(t *testing.T) {
	q := newStartedQueue(t)

	f := q.Submit("panic", func(ctx context.Context) error { panic("bad row") })
	<-f.Done()
	require.Error(t, f.Err())
	assert.Contains(t, f.Err().Error(), "bad row")

	ok := q.Submit("after", func(ctx context.Context) error { return nil })
	<-ok.Done()
	assert.NoError(t, ok.Err())
}

func TestQueue_StopDrainsPending(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)
	q.Start()

	var ran atomic.Int32
	var futures []*Future
	for i := 0; i < 10; i++ {
		futures = append(futures, q.Submit("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
	assert.Equal(t, int32(10), ran.Load())
	for _, f := range futures {
		assert.NoError(t, f.Err())
	}

	// Idempotent.
	require.NoError(t, q.Stop(ctx))
}

func TestQueue_SubmitAfterStop(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)
	q.Start()
	require.NoError(t, q.Stop(context.Background()))

	f := q.Submit("late", func(ctx context.Context) error { return nil })
	select {
	case <-f.Done():
	default:
		t.Fatal("future should be resolved immediately")
	}
	assert.ErrorIs(t, f.Err(), ErrQueueClosed)
}

func TestQueue_StopNeverStarted(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)
	f := q.Submit("orphan", func(ctx context.Context) error { return nil })

	require.NoError(t, q.Stop(context.Background()))
	assert.ErrorIs(t, f.Err(), ErrQueueClosed)
}

func TestQueue_StopTimeout(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)
	q.Start()

	started := make(chan struct{})
	q.Submit("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	queued := q.Submit("queued", func(ctx context.Context) error { return nil })
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	<-queued.Done()
	assert.ErrorIs(t, queued.Err(), ErrQueueClosed)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Wait(ctx), context.Canceled)
	assert.NoError(t, f.Err(), "pending future reports no error")

	done := Completed(nil)
	assert.NoError(t, done.Wait(context.Background()))
}
