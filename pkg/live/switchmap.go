package live

import "sync"

// SwitchMap derives a Data from src: each time src delivers a key, fn is
// called to obtain the inner Data for that key and the result follows it.
// fn runs only when the key arrives, not per observer, so all observers of
// the result share one inner Data. Keys equal to the previous one are
// ignored.
func SwitchMap[K comparable, V any](src *Data[K], fn func(K) *Data[V]) *Data[V] {
	sm := &switchMap[K, V]{src: src, fn: fn}
	sm.out = NewMutableData[V](Lifecycle{
		OnActive:   sm.start,
		OnInactive: sm.stop,
	})
	return sm.out.AsData()
}

type switchMap[K comparable, V any] struct {
	src *Data[K]
	fn  func(K) *Data[V]
	out *MutableData[V]

	// setMu orders forwarded values so a stale inner value cannot land
	// after a newer key's. mu guards the fields below.
	setMu sync.Mutex

	mu      sync.Mutex
	srcSub  *Subscription
	inner   *Subscription
	gen     uint64
	key     K
	haveKey bool
}

func (sm *switchMap[K, V]) start() {
	sub := sm.src.Observe(Immediate, sm.onKey)
	sm.mu.Lock()
	sm.srcSub = sub
	sm.mu.Unlock()
}

func (sm *switchMap[K, V]) stop() {
	sm.mu.Lock()
	srcSub, inner := sm.srcSub, sm.inner
	sm.srcSub, sm.inner = nil, nil
	sm.haveKey = false
	sm.gen++
	sm.mu.Unlock()

	srcSub.Cancel()
	inner.Cancel()
}

func (sm *switchMap[K, V]) onKey(k K) {
	sm.mu.Lock()
	if sm.haveKey && sm.key == k {
		sm.mu.Unlock()
		return
	}
	sm.key, sm.haveKey = k, true
	sm.gen++
	gen := sm.gen
	old := sm.inner
	sm.inner = nil
	sm.mu.Unlock()

	old.Cancel()

	inner := sm.fn(k)
	sub := inner.Observe(Immediate, func(v V) {
		sm.setMu.Lock()
		defer sm.setMu.Unlock()

		sm.mu.Lock()
		current := sm.gen == gen
		sm.mu.Unlock()
		if current {
			sm.out.Set(v)
		}
	})

	sm.mu.Lock()
	if sm.gen != gen {
		sm.mu.Unlock()
		sub.Cancel()
		return
	}
	sm.inner = sub
	sm.mu.Unlock()
}
