// Package cmap contains a thread-safe concurrent awaitable map.
// It is optimised for large maps (e.g. tens of thousands of entries) in highly
// contended environments; for smaller maps another implementation may do better.
//
// Only slightly ad-hoc testing has shown it to outperform sync.Map for our uses
// due to less contention. It is also specifically useful in cases where a caller
// wants to be able to await items entering the map (and not having to poll it to
// find out when another goroutine may insert them).
package cmap

import (
	"fmt"
	"sync"
)

// DefaultShardCount is a reasonable default shard count for large maps.
const DefaultShardCount = 1 << 8

// A Map is the top-level map type. All functions on it are threadsafe.
// It should be constructed via New() rather than creating an instance directly.
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	hasher func(K) uint64
	mask   uint64
}

// New creates a new Map using the given hasher to hash items in it.
// The shard count must be a power of 2; it will panic if not.
// Higher shard counts will improve concurrency but consume more memory.
// The DefaultShardCount of 256 is reasonable for a large map.
func New[K comparable, V any](shardCount uint64, hasher func(K) uint64) *Map[K, V] {
	mask := shardCount - 1
	if (shardCount & mask) != 0 {
		panic(fmt.Sprintf("Shard count %d is not a power of 2", shardCount))
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   mask,
		hasher: hasher,
	}
	for i := range m.shards {
		m.shards[i].m = map[K]awaitableValue[V]{}
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[m.hasher(key)&m.mask]
}

// Add adds a new item to the map, like Set, but never overwrites an
// existing value. It returns true if the item was inserted, false if it
// already existed.
func (m *Map[K, V]) Add(key K, val V) bool {
	return m.shardFor(key).add(key, val)
}

// Set is the equivalent of `map[key] = val`. It always overwrites any key
// that existed before.
func (m *Map[K, V]) Set(key K, val V) {
	m.shardFor(key).set(key, val)
}

// Get returns the value for key, or its zero value if the key doesn't exist.
func (m *Map[K, V]) Get(key K) V {
	v, _, _ := m.shardFor(key).getOrWait(key, false)
	return v
}

// GetOrWait returns the value for key if present. If not, it returns a
// channel that will close once some goroutine calls Set or Add for that
// key, and `first` is true if the caller is the first to ask (and so is
// responsible for eventually producing the value).
func (m *Map[K, V]) GetOrWait(key K) (val V, wait <-chan struct{}, first bool) {
	return m.shardFor(key).getOrWait(key, true)
}

// Values returns a slice of all the current values in the map.
// No particular consistency guarantees are made.
func (m *Map[K, V]) Values() []V {
	ret := []V{}
	for i := range m.shards {
		ret = append(ret, m.shards[i].values()...)
	}
	return ret
}

// Range calls f for each key/value pair currently in the map.
// No particular consistency guarantees are made during iteration.
func (m *Map[K, V]) Range(f func(key K, val V)) {
	for i := range m.shards {
		m.shards[i].rangeOver(f)
	}
}

// An awaitableValue represents a value in the map & an awaitable channel for it to exist.
type awaitableValue[V any] struct {
	Val  V
	Wait chan struct{}
}

// A shard is one of the individual shards of a map.
type shard[K comparable, V any] struct {
	m map[K]awaitableValue[V]
	l sync.Mutex
}

func (s *shard[K, V]) add(key K, val V) bool {
	s.l.Lock()
	defer s.l.Unlock()
	if existing, present := s.m[key]; present {
		if existing.Wait == nil {
			return false // already added
		}
		// Hasn't been added, but something is waiting for it to be.
		close(existing.Wait)
		s.m[key] = awaitableValue[V]{Val: val}
		return true
	}
	s.m[key] = awaitableValue[V]{Val: val}
	return true
}

func (s *shard[K, V]) set(key K, val V) {
	s.l.Lock()
	defer s.l.Unlock()
	if existing, present := s.m[key]; present && existing.Wait != nil {
		close(existing.Wait)
	}
	s.m[key] = awaitableValue[V]{Val: val}
}

func (s *shard[K, V]) getOrWait(key K, createWaiter bool) (val V, wait chan struct{}, first bool) {
	s.l.Lock()
	defer s.l.Unlock()
	if v, ok := s.m[key]; ok {
		return v.Val, v.Wait, false
	}
	if !createWaiter {
		var zero V
		return zero, nil, false
	}
	ch := make(chan struct{})
	s.m[key] = awaitableValue[V]{Wait: ch}
	return *new(V), ch, true
}

// values returns a copy of all the fully-set values currently in the shard.
func (s *shard[K, V]) values() []V {
	s.l.Lock()
	defer s.l.Unlock()
	ret := make([]V, 0, len(s.m))
	for _, v := range s.m {
		if v.Wait == nil {
			ret = append(ret, v.Val)
		}
	}
	return ret
}

func (s *shard[K, V]) rangeOver(f func(key K, val V)) {
	s.l.Lock()
	items := make(map[K]V, len(s.m))
	for k, v := range s.m {
		if v.Wait == nil {
			items[k] = v.Val
		}
	}
	s.l.Unlock()
	for k, v := range items {
		f(k, v)
	}
}
