package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
	"github.com/aretw0/quoteflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sessionID] = sess.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func TestManager_UpdateSerialises(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.Session) error {
				s.Snapshot.StepSelections["parts"] = append(s.Snapshot.StepSelections["parts"], "p")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Without the lock, read-modify-write cycles would lose appends.
	got, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Snapshot.StepSelections["parts"], writers)
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "s1", func(*domain.Session) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, sess)
		}()
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, domain.SnapshotVersion, sess.Snapshot.Version)
	assert.False(t, sess.UpdatedAt.IsZero())
}

func TestManager_ListRequiresLister(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	_, err := manager.List(context.Background())
	assert.Error(t, err)
}

type recordingLocker struct {
	mu      sync.Mutex
	locked  []string
	ttl     time.Duration
	failFor string
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if key == l.failFor {
		return nil, errors.New("held elsewhere")
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	l.mu.Unlock()
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{failFor: "busy"}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	// A failing unlock is only logged.
	require.NoError(t, manager.Save(ctx, "s1", domain.NewSession("s1")))
	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, time.Second, locker.ttl)

	err := manager.Save(ctx, "busy", domain.NewSession("busy"))
	assert.ErrorContains(t, err, "distributed lock")
}

func TestNewID(t *testing.T) {
	a, b := session.NewID(), session.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
