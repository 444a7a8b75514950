package cache

import (
	"context"
	"sync"
	"time"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
)

// MemoryResultCache implements the ResultCache interface with an
// in-process map. Entries expire a fixed TTL after creation; an expired
// entry is reported as absent even when complete.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[entity.SegmentKey]*entity.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryResultCache creates a new in-memory result cache
func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	return &MemoryResultCache{
		entries: make(map[entity.SegmentKey]*entity.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ repository.ResultCache = (*MemoryResultCache)(nil)

// Get returns a copy of the entry for the key, or false when absent or
// expired
func (c *MemoryResultCache) Get(_ context.Context, key entity.SegmentKey) (*entity.CacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.CreatedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.Clone(), true
}

// Put fully replaces the entry for the key
func (c *MemoryResultCache) Put(_ context.Context, key entity.SegmentKey, e *entity.CacheEntry) {
	c.mu.Lock()
	c.entries[key] = e.Clone()
	c.mu.Unlock()
}

// Clear discards every entry
func (c *MemoryResultCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[entity.SegmentKey]*entity.CacheEntry)
	c.mu.Unlock()
}
