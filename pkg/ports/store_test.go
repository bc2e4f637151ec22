package ports_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// MockStore is a minimal SessionStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]*domain.Session)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = session.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

// MockCache is a map-backed EnrichmentCache without expiry.
type MockCache struct {
	data map[string]domain.Enrichment
}

func (m *MockCache) Get(ctx context.Context, key string) (domain.Enrichment, error) {
	v, ok := m.data[key]
	if !ok {
		return domain.Enrichment{}, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value domain.Enrichment, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func TestEnrichmentCache_Contract(t *testing.T) {
	ports.RunEnrichmentCacheContract(t, &MockCache{data: make(map[string]domain.Enrichment)})
}

func TestCacheKey(t *testing.T) {
	if got := ports.CacheKey("linex", "lx-1"); got != "linex:lx-1" {
		t.Errorf("CacheKey() = %q, want linex:lx-1", got)
	}
}
