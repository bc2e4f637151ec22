package ports

import (
	"context"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// SessionStore defines the interface for persisting wizard sessions.
// This is the persistence channel: the core serializes and restores, the
// store chooses the medium.
type SessionStore interface {
	// Save persists the session under the given ID, replacing any previous record.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// SessionLister is implemented by stores that can enumerate their sessions.
type SessionLister interface {
	List(ctx context.Context) ([]string, error)
}
