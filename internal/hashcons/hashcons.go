// Package hashcons implements a concurrent structural-sharing cache.
//
// A Table maps a structural key to the value built for it. The build function
// runs at most once per key, even when many goroutines race on the same key,
// and every caller observes the same stored value.
package hashcons

import (
	"sync"
	"sync/atomic"
)

// Table is a hash-cons table from keys of type K to values of type V. Values
// are built from arguments of type A on the first request for a key.
//
// Entries are never evicted.
type Table[K comparable, A, V any] struct {
	mu    sync.RWMutex
	cells map[K]*cell[V]
	build func(A) V

	lookups atomic.Uint64
	hits    atomic.Uint64
	builds  atomic.Uint64
}

// cell holds the value for a single key. once serializes construction.
type cell[V any] struct {
	once  sync.Once
	value V
}

// New returns a new Table that builds missing values with build.
func New[K comparable, A, V any](build func(A) V) *Table[K, A, V] {
	return &Table[K, A, V]{
		cells: make(map[K]*cell[V]),
		build: build,
	}
}

// GetOrInsert returns the value stored under key. If no value exists then
// build(args) is invoked, its result stored under key and returned.
//
// The table lock is not held while build runs so build may itself call
// GetOrInsert on the same table for other keys. Requesting the key currently
// being built from within its own build deadlocks.
func (t *Table[K, A, V]) GetOrInsert(key K, args A) V {
	t.lookups.Add(1)

	t.mu.RLock()
	c, ok := t.cells[key]
	t.mu.RUnlock()

	if !ok {
		t.mu.Lock()
		if c, ok = t.cells[key]; !ok {
			c = &cell[V]{}
			t.cells[key] = c
		}
		t.mu.Unlock()
	}

	built := false
	c.once.Do(func() {
		c.value = t.build(args)
		built = true
	})
	if built {
		t.builds.Add(1)
	} else {
		t.hits.Add(1)
	}
	return c.value
}

// Len returns the number of keys in the table.
func (t *Table[K, A, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cells)
}

// Stats returns a snapshot of the table's counters.
func (t *Table[K, A, V]) Stats() Stats {
	return Stats{
		Entries: t.Len(),
		Lookups: t.lookups.Load(),
		Hits:    t.hits.Load(),
		Builds:  t.builds.Load(),
	}
}

// Reset removes every entry and zeroes the counters. Values handed out before
// the reset remain valid but will no longer be shared with later requests.
func (t *Table[K, A, V]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cells = make(map[K]*cell[V])
	t.lookups.Store(0)
	t.hits.Store(0)
	t.builds.Store(0)
}

// Stats represents counters for a table.
type Stats struct {
	Entries int
	Lookups uint64
	Hits    uint64
	Builds  uint64
}
