package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/quoteflow/pkg/adapters/memory"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
	contract "github.com/aretw0/quoteflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunEnrichmentCacheContract(t, memory.NewCache())
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	require.NoError(t, cache.Set(ctx, "k", domain.Enrichment{Handle: "h"}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 0, cache.Len(), "expired entries are evicted on read")
}

func TestMemorySource_Contract(t *testing.T) {
	source := memory.NewSource(
		domain.Product{ID: "v1", StepID: "vehicle"},
		domain.Product{ID: "p1", StepID: "parts"},
	)
	contract.CatalogSourceContractTest(t, source, map[string]string{"v1": "vehicle", "p1": "parts"})
}

func TestMemorySource_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := memory.NewSource()

	events, err := source.Watch(ctx)
	require.NoError(t, err)

	source.Replace(domain.Product{ID: "p9", StepID: "parts"})

	select {
	case id := <-events:
		assert.Equal(t, "p9", id)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel closes after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}
