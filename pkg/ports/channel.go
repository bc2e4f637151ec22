package ports

import (
	"context"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// Enricher refreshes price, weight, image and stock for variant ids of one
// channel. Variants it knows nothing about are simply absent from the result.
type Enricher interface {
	Enrich(ctx context.Context, channel string, variantIDs []string) (map[string]domain.Enrichment, error)
}

// Submitter hands a finalised order to the fulfilment channel.
type Submitter interface {
	Submit(ctx context.Context, order domain.Order) (domain.Confirmation, error)
}

// EnrichmentCache stores enrichment results keyed by channel and variant id.
type EnrichmentCache interface {
	// Get returns domain.ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (domain.Enrichment, error)
	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value domain.Enrichment, ttl time.Duration) error
}

// CacheKey builds the cache key of a variant in a channel.
func CacheKey(channel, variantID string) string {
	return channel + ":" + variantID
}
