// Package live provides observable data holders that push snapshots to
// observers through a Dispatcher. Query results from the store are exposed
// as *Data values; an observer registers once, receives the current value,
// and then every newer value until its Subscription is cancelled.
package live

import (
	"sync"
	"sync/atomic"
)

// Lifecycle hooks run when a Data gains its first observer (OnActive) and
// loses its last one (OnInactive). Transitions are serialized per Data.
type Lifecycle struct {
	OnActive   func()
	OnInactive func()
}

// Data is a read-only observable value.
type Data[T any] struct {
	mu        sync.Mutex
	value     T
	version   uint64
	observers map[*observer[T]]struct{}

	activeMu  sync.Mutex
	active    bool
	lifecycle Lifecycle
}

// MutableData is a Data whose value can be set by its owner.
type MutableData[T any] struct {
	Data[T]
}

// NewMutableData returns an empty MutableData with the given lifecycle hooks.
func NewMutableData[T any](lc Lifecycle) *MutableData[T] {
	return &MutableData[T]{Data: Data[T]{
		observers: make(map[*observer[T]]struct{}),
		lifecycle: lc,
	}}
}

// NewData returns a Data holding v with no lifecycle hooks.
func NewData[T any](v T) *Data[T] {
	m := NewMutableData[T](Lifecycle{})
	m.Set(v)
	return m.AsData()
}

// AsData exposes the read-only side of m.
func (m *MutableData[T]) AsData() *Data[T] {
	return &m.Data
}

// Set stores v and schedules delivery to every observer.
func (m *MutableData[T]) Set(v T) {
	m.mu.Lock()
	m.value = v
	m.version++
	obs := make([]*observer[T], 0, len(m.observers))
	for o := range m.observers {
		obs = append(obs, o)
	}
	m.mu.Unlock()

	for _, o := range obs {
		o.schedule()
	}
}

// Value returns the latest value and whether one has been set.
func (d *Data[T]) Value() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.version > 0
}

// HasObservers reports whether at least one subscription is live.
func (d *Data[T]) HasObservers() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observers) > 0
}

// Observe registers fn to be called on dispatcher disp with the current
// value (if any) and every later value. Observers never see an older value
// after a newer one; intermediate values may be skipped.
func (d *Data[T]) Observe(disp Dispatcher, fn func(T)) *Subscription {
	o := &observer[T]{data: d, disp: disp, fn: fn}
	o.sub = &Subscription{cancel: func() { d.remove(o) }}

	d.mu.Lock()
	if d.observers == nil {
		d.observers = make(map[*observer[T]]struct{})
	}
	d.observers[o] = struct{}{}
	hasValue := d.version > 0
	d.mu.Unlock()

	d.updateActive()
	if hasValue {
		o.schedule()
	}
	return o.sub
}

func (d *Data[T]) snapshot() (T, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.version
}

func (d *Data[T]) remove(o *observer[T]) {
	d.mu.Lock()
	delete(d.observers, o)
	d.mu.Unlock()
	d.updateActive()
}

func (d *Data[T]) updateActive() {
	d.activeMu.Lock()
	defer d.activeMu.Unlock()

	want := d.HasObservers()
	if want == d.active {
		return
	}
	d.active = want
	if want {
		if d.lifecycle.OnActive != nil {
			d.lifecycle.OnActive()
		}
		return
	}
	if d.lifecycle.OnInactive != nil {
		d.lifecycle.OnInactive()
	}
}

type observer[T any] struct {
	data *Data[T]
	disp Dispatcher
	fn   func(T)
	sub  *Subscription

	mu          sync.Mutex
	lastVersion uint64
}

func (o *observer[T]) schedule() {
	if o.sub.Cancelled() {
		return
	}
	o.disp.Dispatch(o.deliver)
}

// deliver runs on the dispatcher. It reads the newest value at execution
// time, so a burst of Sets collapses into a single callback. Callbacks for
// one observer never overlap, even under Immediate from several goroutines,
// so an Immediate observer must not Set the Data it observes.
func (o *observer[T]) deliver() {
	if o.sub.Cancelled() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	v, version := o.data.snapshot()
	if version <= o.lastVersion || o.sub.Cancelled() {
		return
	}
	o.lastVersion = version
	o.fn(v)
}

// Subscription is the handle returned by Observe.
type Subscription struct {
	cancelled atomic.Bool
	cancel    func()
}

// Cancel detaches the observer. It is idempotent and terminal: once it
// returns no new callback is started for this subscription. A callback
// already running when Cancel is called from another goroutine runs to
// completion. Cancel may be called from inside the callback.
func (s *Subscription) Cancel() {
	if s == nil || !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}
