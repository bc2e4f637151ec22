package quoteflow_test

import (
	"context"
	"testing"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/pkg/adapters/memory"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_ResumesPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(store))
	first.Toggle(ctx, "vehicle", "hilux-2020")
	_, err := first.Next(ctx)
	require.NoError(t, err)
	first.SetField(ctx, "contact", "state", "WA")
	first.Blur(ctx, "contact", "email")

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "canopy", saved.ActiveStepID)
	assert.Equal(t, "linex", saved.Channel)
	assert.Equal(t, []string{"contact.email"}, saved.Touched)

	second := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(store))
	view := second.View()
	assert.Equal(t, "canopy", view.Step.ID)
	assert.Equal(t, "linex", second.Channel())
	assert.Equal(t, []string{"hilux-2020"}, second.Session().Snapshot.StepSelections["vehicle"])
	assert.Equal(t, []string{"contact.email"}, second.Session().Touched)
}

func TestWizard_DiscardsForeignSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	foreign := domain.NewSession("s1")
	foreign.Snapshot.Version = "bogus"
	foreign.Snapshot.StepSelections["vehicle"] = []string{"hilux-2020"}
	require.NoError(t, store.Save(ctx, "s1", foreign))

	w := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(store))
	assert.Empty(t, w.Totals().LineItems)
	assert.Equal(t, "vehicle", w.View().Step.ID)

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotVersion, saved.Snapshot.Version, "a fresh record replaces the foreign one")
}

func TestWizard_RestoreDropsUnknownProducts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sess := domain.NewSession("s1")
	sess.Snapshot.StepSelections["vehicle"] = []string{"hilux-2020"}
	sess.Snapshot.StepSelections["canopy"] = []string{"discontinued", "canopy-std"}
	sess.ActiveStepID = "canopy"
	require.NoError(t, store.Save(ctx, "s1", sess))

	w := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(store))
	assert.Equal(t, []domain.LineItem{
		{StepID: "vehicle", ProductID: "hilux-2020"},
		{StepID: "canopy", ProductID: "canopy-std"},
	}, w.Totals().LineItems)
	assert.Equal(t, "canopy", w.View().Step.ID)
}

func TestWizard_RestartDeletesSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	w := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(store))
	w.Toggle(ctx, "vehicle", "hilux-2020")
	w.SetField(ctx, "contact", "state", "WA")
	w.Next(ctx)

	res := w.Restart(ctx)
	assert.True(t, res.Changed)
	assert.Equal(t, "vehicle", res.View.Step.ID)
	assert.Equal(t, "autospec", res.View.Channel)
	assert.Empty(t, res.View.Totals.LineItems)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestWizard_SealedStore(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)
	sealed := middleware.Chain(inner, mw)

	w := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(sealed))
	w.Toggle(ctx, "vehicle", "hilux-2020")

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.EnvelopeVersion, raw.Snapshot.Version)
	assert.Empty(t, raw.Snapshot.StepSelections)

	again := newWizard(t, quoteflow.WithSessionID("s1"), quoteflow.WithSessionStore(sealed))
	assert.Equal(t, []string{"hilux-2020"}, again.Session().Snapshot.StepSelections["vehicle"])
}

func TestWizard_Preselect(t *testing.T) {
	w := newWizard(t, quoteflow.WithPreselect("hilux-2020"))
	assert.Equal(t, domain.VehicleSelection{Make: "Toyota", Model: "Hilux"}, w.Vehicle())
	assert.Equal(t, []string{"hilux-2020"}, w.View().SelectedIDs)

	ignored := newWizard(t, quoteflow.WithPreselect("canopy-std"))
	assert.Empty(t, ignored.Totals().LineItems, "only anchor products can be preselected")
}
