package memory

import (
	"context"
	"sync"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// Source implements ports.CatalogSource over an in-memory product list.
// Replace swaps the list and notifies watchers, which makes it handy for
// tests and embedded catalogs.
type Source struct {
	mu       sync.RWMutex
	products []domain.Product
	watchers []chan string
}

// NewSource creates a source serving a copy of products.
func NewSource(products ...domain.Product) *Source {
	s := &Source{}
	s.products = cloneProducts(products)
	return s
}

// Products returns a copy of the current list.
func (s *Source) Products(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products), nil
}

// Replace swaps the product list and signals every watcher with the
// id of each product in the new list. Signals are dropped when a watcher's
// buffer is full.
func (s *Source) Replace(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cloneProducts(products)
	for _, ch := range s.watchers {
		for _, p := range products {
			select {
			case ch <- p.ID:
			default:
			}
		}
	}
}

// Watch implements ports.Watchable. The channel closes when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

func cloneProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
