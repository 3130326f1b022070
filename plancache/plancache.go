// Package plancache is a ristretto-backed cache keyed by a plan's stable
// ID() (§6: "get_id() returning a stable string used for plan caching and
// equality"). The teacher's functions.go sketches exactly this shape — a
// ristretto.Cache keyed by a computed identity, sized by
// counters/cost/buffer-items — in a commented-out regexp-compilation
// cache; this package wires the same shape for real, caching finalized
// ExpressionActions and Union Stream wiring by ID so a planner can skip
// re-finalizing/re-optimizing an identical subplan.
package plancache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Cache caches arbitrary plan-time values (finalized *actions.ExpressionActions,
// *chain.Chain, *union.Stream, ...) keyed by their ID() string.
type Cache struct {
	c *ristretto.Cache
}

// Config mirrors the teacher's inline ristretto.Config literal: a modest
// default sizing suitable for caching a handful of finalized subplans
// rather than a hot per-row value cache.
type Config struct {
	// NumCounters is the number of keys to track access frequency for.
	NumCounters int64
	// MaxCost bounds the cache's total cost; callers Set with cost 1 per
	// plan entry unless they want to weight by plan size.
	MaxCost int64
	// BufferItems is ristretto's internal Get buffer size per shard.
	BufferItems int64
}

// DefaultConfig mirrors the teacher's commented regexpCache sizing,
// scaled down: plans are far larger and far less numerous than compiled
// regexes.
func DefaultConfig() Config {
	return Config{
		NumCounters: 1 << 12, // 4096 keys tracked.
		MaxCost:     1 << 20, // 1048576 cost units: that many plans at cost 1.
		BufferItems: 64,
	}
}

// New builds a Cache from cfg.
func New(cfg Config) (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("plancache: couldn't initialize cache: %w", err)
	}
	return &Cache{c: rc}, nil
}

// Get returns the cached value for id, if present.
func (c *Cache) Get(id string) (interface{}, bool) {
	return c.c.Get(id)
}

// Set caches value under id with the given cost (1 is the usual choice for
// a single finalized plan).
func (c *Cache) Set(id string, value interface{}, cost int64) bool {
	return c.c.Set(id, value, cost)
}

// GetOrCompute returns the cached value for id if present, else computes it
// via compute, caches it at cost 1, and returns the fresh value. compute's
// error is propagated and nothing is cached on failure.
func (c *Cache) GetOrCompute(id string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.c.Get(id); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.c.Set(id, v, 1)
	return v, nil
}

// Del evicts id from the cache, used when a planner knows a cached subplan
// has been invalidated (e.g. its settings changed).
func (c *Cache) Del(id string) {
	c.c.Del(id)
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
