package metrics

import (
	"sort"
	"sync"

	"github.com/agbru/tieraccel/internal/operation"
)

const shardCount = 16

type shard struct {
	mu       sync.RWMutex
	counters map[operation.Key]*Counter
}

// Registry holds one Counter per operation key, created on first use.
type Registry struct {
	shards [shardCount]shard
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].counters = make(map[operation.Key]*Counter)
	}
	return r
}

// Counter returns the counter for key, creating it if needed.
func (r *Registry) Counter(key operation.Key) *Counter {
	s := &r.shards[key.Hash()%shardCount]
	s.mu.RLock()
	c, ok := s.counters[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return c
	}
	c = NewCounter()
	s.counters[key] = c
	return c
}

// Record counts an unpaired execution for key.
func (r *Registry) Record(key operation.Key, used Implementation, timeMs float64) {
	r.Counter(key).Record(used, timeMs)
}

// RecordSampled counts a paired execution for key.
func (r *Registry) RecordSampled(key operation.Key, used Implementation, nativeMs, fallbackMs float64) {
	r.Counter(key).RecordSampled(used, nativeMs, fallbackMs)
}

// GetMetrics returns the aggregates for key. Unknown keys report zeros
// without allocating a counter.
func (r *Registry) GetMetrics(key operation.Key) PerformanceMetrics {
	s := &r.shards[key.Hash()%shardCount]
	s.mu.RLock()
	c, ok := s.counters[key]
	s.mu.RUnlock()
	if !ok {
		return PerformanceMetrics{}
	}
	return c.Snapshot()
}

// Keys returns every key with a counter, sorted by String.
func (r *Registry) Keys() []operation.Key {
	var keys []operation.Key
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for k := range s.counters {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Reset drops every counter.
func (r *Registry) Reset() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		clear(s.counters)
		s.mu.Unlock()
	}
}
