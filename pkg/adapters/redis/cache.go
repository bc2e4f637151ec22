package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.EnrichmentCache using Redis string keys with TTL.
type Cache struct {
	client *backend.Client
	prefix string
}

// NewCache creates an enrichment cache sharing client with the session store.
func NewCache(client *backend.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{client: client, prefix: prefix + "enrich:"}
}

// Get returns domain.ErrCacheMiss when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) (domain.Enrichment, error) {
	var value domain.Enrichment
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return value, domain.ErrCacheMiss
		}
		return value, fmt.Errorf("failed to read cache: %w", err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return value, nil
}

// Set stores value. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value domain.Enrichment, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
