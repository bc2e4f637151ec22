package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/quoteflow/pkg/ports"
)

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first one listed sees calls first.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

func listNext(ctx context.Context, next ports.SessionStore) ([]string, error) {
	lister, ok := next.(ports.SessionLister)
	if !ok {
		return nil, fmt.Errorf("underlying store %T cannot list sessions", next)
	}
	return lister.List(ctx)
}
