package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
)

type cacheEntry struct {
	value   domain.Enrichment
	expires time.Time
}

// Cache implements ports.EnrichmentCache in memory with per-entry expiry.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached value or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) (domain.Enrichment, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return domain.Enrichment{}, domain.ErrCacheMiss
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return domain.Enrichment{}, domain.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores value under key. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value domain.Enrichment, ttl time.Duration) error {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Len returns the number of live and expired-but-unevicted entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
