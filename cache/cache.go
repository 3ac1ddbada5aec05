// Package cache provides memoization for deterministic trajectory
// evaluations keyed by parameter pair. Posterior-predictive passes
// repeat parameter values heavily (every rejected MCMC step duplicates
// the previous sample), so caching avoids re-running identical
// mean-field recurrences.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/outbreaklab/go-outbreak/sir"
)

// TrajectoryCache caches mean-field trajectories keyed by a hash of the
// parameter pair's float bits.
type TrajectoryCache struct {
	mu        sync.RWMutex
	cache     map[string]*sir.MeanTrajectory
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// New creates a cache with the specified maximum size.
// When the cache is full, an arbitrary entry is evicted.
// Set maxSize to 0 for an unbounded cache.
func New(maxSize int) *TrajectoryCache {
	return &TrajectoryCache{
		cache:   make(map[string]*sir.MeanTrajectory),
		maxSize: maxSize,
	}
}

// hashParams creates a deterministic key from the exact float bits of
// both rates.
func hashParams(p sir.Params) string {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(p.Beta))
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, math.Float64bits(p.Gamma))
	h.Write(buf)
	return string(h.Sum(nil))
}

// Get retrieves a cached trajectory for the given parameters.
// Returns nil if not found.
func (c *TrajectoryCache) Get(p sir.Params) *sir.MeanTrajectory {
	key := hashParams(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if tr, ok := c.cache[key]; ok {
		c.hits++
		return tr
	}
	c.misses++
	return nil
}

// Put stores a trajectory in the cache.
func (c *TrajectoryCache) Put(p sir.Params, tr *sir.MeanTrajectory) {
	key := hashParams(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}
	c.cache[key] = tr
}

// GetOrCompute retrieves from cache or computes and caches the result.
func (c *TrajectoryCache) GetOrCompute(p sir.Params, compute func() *sir.MeanTrajectory) *sir.MeanTrajectory {
	if tr := c.Get(p); tr != nil {
		return tr
	}
	tr := compute()
	if tr != nil {
		c.Put(p, tr)
	}
	return tr
}

// Clear removes all entries.
func (c *TrajectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*sir.MeanTrajectory)
}

// Len returns the number of cached entries.
func (c *TrajectoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats returns hit, miss, and eviction counters.
func (c *TrajectoryCache) Stats() (hits, misses, evictions int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions
}
