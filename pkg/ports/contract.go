package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.Channel = "autospec"
		session.ActiveStepID = "parts"
		session.Snapshot.StepSelections["vehicle"] = []string{"v1"}
		session.Snapshot.StepSelections["parts"] = []string{"p1", "p2"}
		session.Snapshot.FieldValues["contact"] = map[string]string{"email": "a@b.co"}

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, domain.SnapshotVersion, loaded.Snapshot.Version)
		assert.Equal(t, "autospec", loaded.Channel)
		assert.Equal(t, "parts", loaded.ActiveStepID)
		assert.Equal(t, []string{"p1", "p2"}, loaded.Snapshot.StepSelections["parts"], "selection order is preserved")
		assert.Equal(t, "a@b.co", loaded.Snapshot.FieldValues["contact"]["email"])
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Snapshot.StepSelections["parts"][0] = "mutated"
		loaded.Snapshot.FieldValues["contact"]["email"] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "p1", again.Snapshot.StepSelections["parts"][0])
		assert.Equal(t, "a@b.co", again.Snapshot.FieldValues["contact"]["email"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.ActiveStepID = "vehicle"
		require.NoError(t, store.Save(ctx, sessionID, session))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "vehicle", loaded.ActiveStepID)
		assert.Empty(t, loaded.Snapshot.StepSelections)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of a missing session is not an error")
	})

	lister, ok := store.(SessionLister)
	if !ok {
		return
	}
	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := lister.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunEnrichmentCacheContract verifies an EnrichmentCache implementation.
func RunEnrichmentCacheContract(t *testing.T, cache EnrichmentCache) {
	ctx := context.Background()
	key := CacheKey("autospec", "contract-"+time.Now().Format("150405.000"))

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Set and Get", func(t *testing.T) {
		stock := 3
		value := domain.Enrichment{
			Price:  domain.Float(99.5),
			Weight: domain.Float(1200),
			Image:  "https://cdn.example.com/a.png",
			Handle: "roof-rack",
			Stock:  &stock,
		}
		require.NoError(t, cache.Set(ctx, key, value, time.Minute))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("Partial Value", func(t *testing.T) {
		partial := key + "-partial"
		require.NoError(t, cache.Set(ctx, partial, domain.Enrichment{Handle: "bare"}, 0))

		got, err := cache.Get(ctx, partial)
		require.NoError(t, err)
		assert.Nil(t, got.Price, "absent price stays absent")
		assert.Equal(t, "bare", got.Handle)
	})
}
