package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/tally/pkg/stats"
)

// Memory is an in-process read-through cache over a stats.Source, backed by
// an expirable LRU.
type Memory struct {
	inner    stats.Source
	cache    *lru.LRU[string, float64]
	recorder Recorder

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory wraps inner with an LRU of at most size entries, each living for
// ttl. A size below 1 falls back to 1024 entries; a zero ttl disables expiry
// and leaves eviction to capacity alone.
func NewMemory(inner stats.Source, size int, ttl time.Duration) *Memory {
	if size < 1 {
		size = 1024
	}
	return &Memory{
		inner: inner,
		cache: lru.NewLRU[string, float64](size, nil, ttl),
	}
}

// SetRecorder installs a hit/miss recorder. Set before first use.
func (m *Memory) SetRecorder(r Recorder) {
	m.recorder = r
}

func (m *Memory) recordHit() {
	m.hits.Add(1)
	if m.recorder != nil {
		m.recorder.CacheHit(memoryLayer)
	}
}

func (m *Memory) recordMiss() {
	m.misses.Add(1)
	if m.recorder != nil {
		m.recorder.CacheMiss(memoryLayer)
	}
}

// Evaluate returns the cached value for this name and filter context, or
// evaluates and stores it.
func (m *Memory) Evaluate(ctx context.Context, name string, filters stats.Filters) (float64, error) {
	key := Key(name, filters)
	if value, ok := m.cache.Get(key); ok {
		m.recordHit()
		return value, nil
	}
	m.recordMiss()

	value, err := m.inner.Evaluate(ctx, name, filters)
	if err != nil {
		return 0, err
	}
	m.cache.Add(key, value)
	return value, nil
}

// EvaluateAll assembles the full result map from cache when every statistic
// is present; otherwise it delegates the whole call (the source evaluates in
// parallel) and stores each returned value.
func (m *Memory) EvaluateAll(ctx context.Context, filters stats.Filters, except ...string) (map[string]float64, error) {
	skip := make(map[string]bool, len(except))
	for _, name := range except {
		skip[name] = true
	}

	results := make(map[string]float64)
	complete := true
	for _, name := range m.inner.Names() {
		if skip[name] {
			continue
		}
		value, ok := m.cache.Get(Key(name, filters))
		if !ok {
			complete = false
			break
		}
		results[name] = value
	}
	if complete {
		m.recordHit()
		return results, nil
	}
	m.recordMiss()

	results, err := m.inner.EvaluateAll(ctx, filters, except...)
	if err != nil {
		return nil, err
	}
	for name, value := range results {
		m.cache.Add(Key(name, filters), value)
	}
	return results, nil
}

// Names delegates to the wrapped source.
func (m *Memory) Names() []string {
	return m.inner.Names()
}

// Purge drops every cached entry.
func (m *Memory) Purge() {
	m.cache.Purge()
}

// Stats reports hit/miss counters and the current entry count.
func (m *Memory) Stats() (hits, misses int64, entries int) {
	return m.hits.Load(), m.misses.Load(), m.cache.Len()
}
