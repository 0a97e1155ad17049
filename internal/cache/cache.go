// Package cache memoizes rendered glyph markup.
//
// Entries are keyed by lattice identity, lattice content digest, render
// options and normalized text. There is no TTL or eviction: an entry only
// goes stale when its lattice changes, and then its content digest no
// longer matches. InvalidateLattice drops those entries eagerly.
//
// The cache is sharded by key hash, each shard behind its own RWMutex, with
// lock-free statistics.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// ShardCount is the number of shards. Must be a power of 2.
const (
	ShardCount = 16
	shardMask  = ShardCount - 1
)

// Key identifies one rendered glyph.
type Key struct {
	LatticeID     string
	LatticeDigest string
	// Render is a stable description of style and orientation.
	Render string
	Text   string
}

func (k Key) hash() uint64 {
	h := fnv.New64a()
	for _, s := range []string{k.LatticeID, k.LatticeDigest, k.Render, k.Text} {
		_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len           int     `json:"len"`
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Invalidations uint64  `json:"invalidations"`
	HitRate       float64 `json:"hit_rate"`
}

// Cache is a concurrent glyph cache. The zero value is not usable; call New.
type Cache struct {
	shards [ShardCount]*shard

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[Key]string
}

// New returns an empty cache.
func New() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[Key]string)}
	}
	return c
}

func (c *Cache) shard(key Key) *shard {
	return c.shards[key.hash()&shardMask]
}

// Get returns the markup cached under key.
func (c *Cache) Get(key Key) (string, bool) {
	s := c.shard(key)
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores markup under key. Rendering is deterministic, so overwriting
// an entry stores the same value again.
func (c *Cache) Set(key Key, markup string) {
	s := c.shard(key)
	s.mu.Lock()
	s.entries[key] = markup
	s.mu.Unlock()
}

// GetOrCreate returns the cached markup for key, or calls create and caches
// its result. create runs without any lock held, so concurrent callers for
// one key may each compute it; rendering is deterministic and the first
// stored value wins. Errors are returned and not cached. hit reports
// whether the value came from the cache.
func (c *Cache) GetOrCreate(key Key, create func() (string, error)) (markup string, hit bool, err error) {
	s := c.shard(key)

	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v, true, nil
	}

	c.misses.Add(1)
	v, err = create()
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok {
		return existing, false, nil
	}
	s.entries[key] = v
	return v, false, nil
}

// InvalidateLattice removes every entry of a lattice id, whatever its
// digest, and returns how many were removed.
func (c *Cache) InvalidateLattice(latticeID string) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for k := range s.entries {
			if k.LatticeID == latticeID {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	c.invalidations.Add(uint64(removed))
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[Key]string)
		s.mu.Unlock()
	}
}

// Len returns the number of entries across all shards.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:           c.Len(),
		Hits:          hits,
		Misses:        misses,
		Invalidations: c.invalidations.Load(),
		HitRate:       rate,
	}
}
