package live

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoop_FIFOOnOneGoroutine(t *testing.T) {
	loop := NewLoop()

	var (
		mu    sync.Mutex
		order []int
	)
	for i := 0; i < 50; i++ {
		loop.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	loop.Stop()

	assert.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestLoop_StopIsIdempotentAndDropsLateWork(t *testing.T) {
	loop := NewLoop()
	loop.Stop()
	loop.Stop()

	ran := false
	loop.Dispatch(func() { ran = true })

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not finish")
	}
	assert.False(t, ran)
}

func TestDispatcherFunc(t *testing.T) {
	var got bool
	var d Dispatcher = DispatcherFunc(func(fn func()) { fn() })
	d.Dispatch(func() { got = true })
	assert.True(t, got)
}
