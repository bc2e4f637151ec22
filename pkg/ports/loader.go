package ports

import (
	"context"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// CatalogSource supplies product records. The wizard merges them into its
// catalog by id, so a source may return a partial or refreshed list.
type CatalogSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload while authoring a catalog.
type Watchable interface {
	// Watch returns a channel that receives the id of each changed document.
	Watch(ctx context.Context) (<-chan string, error)
}
