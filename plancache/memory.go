package plancache

import (
	"context"
	"sync"
	"time"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// Stats is a convenience observability surface outside the Cache contract
// (spec §7 supplement), grounded on gomind's orchestration/cache.go
// CacheStats.
type Stats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

type memoryEntry struct {
	entry   *core.ParseratorPlanCacheEntry
	profile string
}

// InMemory is the built-in reference Cache implementation (spec §4.4): it
// clones entries on read and write so a caller mutating the returned entry
// can never corrupt the cached copy, and it preserves a stored plan's
// metadata.Origin verbatim.
type InMemory struct {
	mu      sync.RWMutex
	items   map[string]memoryEntry
	maxSize int
	stats   Stats
}

// NewInMemory creates a bounded in-memory plan cache. maxSize <= 0 means
// unbounded.
func NewInMemory(maxSize int) *InMemory {
	return &InMemory{items: make(map[string]memoryEntry), maxSize: maxSize}
}

func (c *InMemory) Get(_ context.Context, key string) (*core.ParseratorPlanCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		c.updateHitRate()
		return nil, nil
	}
	c.stats.Hits++
	c.updateHitRate()
	return item.entry.Clone(), nil
}

func (c *InMemory) Set(_ context.Context, key string, entry *core.ParseratorPlanCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	if c.maxSize > 0 {
		if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	c.items[key] = memoryEntry{entry: entry.Clone(), profile: entry.Profile}
	c.stats.Size = len(c.items)
	return nil
}

func (c *InMemory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.stats.Size = len(c.items)
	return nil
}

// Clear removes every entry matching profile, or every entry if profile
// is empty.
func (c *InMemory) Clear(_ context.Context, profile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if profile == "" {
		c.items = make(map[string]memoryEntry)
		c.stats.Size = 0
		return nil
	}
	for k, v := range c.items {
		if v.profile == profile {
			delete(c.items, k)
		}
	}
	c.stats.Size = len(c.items)
	return nil
}

// Stats returns a snapshot of cache hit/miss/eviction counters.
func (c *InMemory) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Size = len(c.items)
	return s
}

func (c *InMemory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, v := range c.items {
		if oldestKey == "" || v.entry.UpdatedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = v.entry.UpdatedAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.stats.Evictions++
	}
}

func (c *InMemory) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}
