package sqlite

import "sync"

// invalidationTracker tells live queries that a table changed. Writers call
// notify after their transaction commits; observers re-run their query.
type invalidationTracker struct {
	mu        sync.Mutex
	nextID    int
	observers map[string]map[int]func()
}

func newInvalidationTracker() *invalidationTracker {
	return &invalidationTracker{observers: make(map[string]map[int]func())}
}

// register adds fn as an observer of table and returns a function that
// removes it. The returned function is idempotent.
func (t *invalidationTracker) register(table string, fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	if t.observers[table] == nil {
		t.observers[table] = make(map[int]func())
	}
	t.observers[table][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.observers[table], id)
		})
	}
}

// notify calls every observer of table. Observers must not block.
func (t *invalidationTracker) notify(table string) {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.observers[table]))
	for _, fn := range t.observers[table] {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// notifyAll calls every observer of every table.
func (t *invalidationTracker) notifyAll() {
	t.mu.Lock()
	var fns []func()
	for _, obs := range t.observers {
		for _, fn := range obs {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// count returns the number of observers of table.
func (t *invalidationTracker) count(table string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers[table])
}
