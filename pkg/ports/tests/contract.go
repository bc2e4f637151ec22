package tests

import (
	"context"
	"testing"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// CatalogSourceContractTest is a reusable test suite that verifies if an
// adapter complies with ports.CatalogSource. expected maps product ids to the
// step each one must be filed under.
func CatalogSourceContractTest(t *testing.T, source ports.CatalogSource, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	products, err := source.Products(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing products: %v", err)
	}

	t.Run("Products_Count", func(t *testing.T) {
		if len(products) != len(expected) {
			t.Errorf("expected %d products, got %d", len(expected), len(products))
		}
	})

	t.Run("Products_Steps", func(t *testing.T) {
		lookup := make(map[string]domain.Product, len(products))
		for _, p := range products {
			lookup[p.ID] = p
		}
		for id, step := range expected {
			p, ok := lookup[id]
			if !ok {
				t.Errorf("product %s missing from source", id)
				continue
			}
			if p.StepID != step {
				t.Errorf("product %s step = %q, want %q", id, p.StepID, step)
			}
		}
	})

	t.Run("Products_UniqueIDs", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, p := range products {
			if seen[p.ID] {
				t.Errorf("duplicate product id %s", p.ID)
			}
			seen[p.ID] = true
		}
	})
}
