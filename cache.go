package zen

import (
	"sort"
	"sync/atomic"

	"github.com/benbjohnson/zen/internal/hashcons"
)

// CacheStat reports the state of the hash-cons table of one node kind.
type CacheStat struct {
	Entries int    // keys registered in the table
	Lookups uint64 // constructor calls
	Hits    uint64 // constructor calls answered from the table
	Nodes   uint64 // nodes of this kind allocated
}

// cache is the hash-cons table for a single node kind.
type cache[K comparable, A, V any] struct {
	*hashcons.Table[K, A, V]
	nodes atomic.Uint64
}

type statter interface {
	stat() CacheStat
}

// caches holds every node-kind table by name. Only written during init.
var caches = make(map[string]statter)

func newCache[K comparable, A, V any](name string, build func(A) V) *cache[K, A, V] {
	_, ok := caches[name]
	assert(!ok, "duplicate cache: %s", name)
	c := &cache[K, A, V]{Table: hashcons.New[K, A, V](build)}
	caches[name] = c
	return c
}

func (c *cache[K, A, V]) stat() CacheStat {
	s := c.Stats()
	return CacheStat{
		Entries: s.Entries,
		Lookups: s.Lookups,
		Hits:    s.Hits,
		Nodes:   c.nodes.Load(),
	}
}

// CacheStats returns statistics for every node-kind table, keyed by kind name.
func CacheStats() map[string]CacheStat {
	m := make(map[string]CacheStat, len(caches))
	for name, c := range caches {
		m[name] = c.stat()
	}
	return m
}

// CacheNames returns the sorted names of all node-kind tables.
func CacheNames() []string {
	a := make([]string, 0, len(caches))
	for name := range caches {
		a = append(a, name)
	}
	sort.Strings(a)
	return a
}
