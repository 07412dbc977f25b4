package threshold

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agbru/tieraccel/internal/operation"
)

const shardCount = 16

type shard struct {
	mu       sync.RWMutex
	managers map[operation.Key]*Manager
}

// Registry holds one Manager per operation key, created on first use.
// Managers are spread across shards by key hash so that lookups for
// unrelated operations do not contend on one lock.
type Registry struct {
	shards [shardCount]shard

	cfgMu     sync.RWMutex
	defaults  Config
	overrides map[operation.Key]Config
	logger    zerolog.Logger
}

// NewRegistry creates a registry whose managers default to cfg.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		defaults:  cfg,
		overrides: make(map[operation.Key]Config),
		logger:    zerolog.Nop(),
	}
	for i := range r.shards {
		r.shards[i].managers = make(map[operation.Key]*Manager)
	}
	return r, nil
}

// SetLogger sets the logger handed to managers, including existing ones.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.cfgMu.Lock()
	r.logger = l
	r.cfgMu.Unlock()
	r.each(func(m *Manager) { m.SetLogger(l) })
}

// Configure registers a per-key configuration. It replaces any manager that
// already exists for key, discarding its learned state.
func (r *Registry) Configure(key operation.Key, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfgMu.Lock()
	r.overrides[key] = cfg
	r.cfgMu.Unlock()

	s := r.shardFor(key)
	s.mu.Lock()
	delete(s.managers, key)
	s.mu.Unlock()
	return nil
}

// ConfigFor returns the configuration a manager for key is, or would be,
// created with.
func (r *Registry) ConfigFor(key operation.Key) Config {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	if cfg, ok := r.overrides[key]; ok {
		return cfg
	}
	return r.defaults
}

func (r *Registry) shardFor(key operation.Key) *shard {
	return &r.shards[key.Hash()%shardCount]
}

// Manager returns the manager for key, creating it if needed.
func (r *Registry) Manager(key operation.Key) *Manager {
	s := r.shardFor(key)
	s.mu.RLock()
	m, ok := s.managers[key]
	s.mu.RUnlock()
	if ok {
		return m
	}

	cfg := r.ConfigFor(key)
	r.cfgMu.RLock()
	logger := r.logger
	r.cfgMu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.managers[key]; ok {
		return m
	}
	// cfg was validated by NewRegistry or Configure.
	m, _ = NewManager(key, cfg)
	m.logger = logger
	s.managers[key] = m
	return m
}

// GetThreshold returns the current threshold for key.
func (r *Registry) GetThreshold(key operation.Key) int {
	return r.Manager(key).Threshold()
}

// Seed sets the threshold for key, see Manager.Seed.
func (r *Registry) Seed(key operation.Key, threshold int) {
	r.Manager(key).Seed(threshold)
}

// RecordSample records s against key and reports whether the threshold moved.
func (r *Registry) RecordSample(key operation.Key, s Sample) bool {
	return r.Manager(key).RecordSample(s)
}

// GetSamples returns the retained samples for key, oldest first.
func (r *Registry) GetSamples(key operation.Key) []Sample {
	return r.Manager(key).Samples()
}

// Keys returns every key that has a manager, sorted by String.
func (r *Registry) Keys() []operation.Key {
	var keys []operation.Key
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for k := range s.managers {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Stats returns statistics for every known key, sorted by key.
func (r *Registry) Stats() []Stats {
	keys := r.Keys()
	out := make([]Stats, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Manager(k).Stats())
	}
	return out
}

// Reset drops every manager. Per-key configurations are kept.
func (r *Registry) Reset() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		clear(s.managers)
		s.mu.Unlock()
	}
}

func (r *Registry) each(fn func(*Manager)) {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, m := range s.managers {
			fn(m)
		}
		s.mu.RUnlock()
	}
}
