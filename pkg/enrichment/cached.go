package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/observability"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// DefaultTTL is how long a fetched enrichment stays cached.
const DefaultTTL = 30 * time.Minute

// Cached is an Enricher that answers from a cache and only asks the wrapped
// Enricher for the variants it has not seen recently.
type Cached struct {
	next    ports.Enricher
	cache   ports.EnrichmentCache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Cached enricher.
type Option func(*Cached)

// WithTTL overrides DefaultTTL. Zero keeps entries until evicted by the cache.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cached) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cached) {
		c.logger = logger
	}
}

// WithMetrics records cache hits, misses and fetch latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cached) {
		c.metrics = m
	}
}

// NewCached wraps next with cache.
func NewCached(next ports.Enricher, cache ports.EnrichmentCache, opts ...Option) *Cached {
	c := &Cached{
		next:   next,
		cache:  cache,
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enrich returns cached values merged with freshly fetched ones. A cache
// that fails to answer is treated as a miss; a failing fetch is returned
// as an error together with nothing, so callers keep their saved values.
func (c *Cached) Enrich(ctx context.Context, channel string, variantIDs []string) (map[string]domain.Enrichment, error) {
	out := make(map[string]domain.Enrichment, len(variantIDs))
	var missing []string
	for _, id := range variantIDs {
		value, err := c.cache.Get(ctx, ports.CacheKey(channel, id))
		if err != nil {
			if !errors.Is(err, domain.ErrCacheMiss) {
				c.logger.Warn("enrichment cache read failed", "channel", channel, "variant", id, "err", err)
			}
			missing = append(missing, id)
			continue
		}
		out[id] = value
	}
	c.metrics.CacheLookup(len(out), len(missing))

	if len(missing) == 0 {
		return out, nil
	}

	start := time.Now()
	fetched, err := c.next.Enrich(ctx, channel, missing)
	c.metrics.Enrichment(channel, start)
	if err != nil {
		return nil, err
	}

	for id, value := range fetched {
		if err := c.cache.Set(ctx, ports.CacheKey(channel, id), value, c.ttl); err != nil {
			c.logger.Warn("enrichment cache write failed", "channel", channel, "variant", id, "err", err)
		}
		out[id] = value
	}
	return out, nil
}

var _ ports.Enricher = (*Cached)(nil)
