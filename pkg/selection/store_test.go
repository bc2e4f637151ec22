package selection_test

import (
	"testing"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "v1", StepID: "vehicle", Price: domain.Float(0), Variants: map[string]string{"autospec": "av1"}},
		{ID: "v2", StepID: "vehicle"},
		{ID: "p1", StepID: "parts", Price: domain.Float(50), Weight: domain.Float(1200), CompatibleWith: []string{"v1"}, Variants: map[string]string{"autospec": "a1", "linex": "l1"}},
		{ID: "p2", StepID: "parts", Price: domain.Float(30), Variants: map[string]string{"autospec": "a2"}},
		{ID: "x1", StepID: "extras", Weight: domain.Float(300)},
	}
}

var (
	vehicleStep = domain.StepDefinition{ID: "vehicle", SelectionMode: domain.ModeSingle, Required: true}
	partsStep   = domain.StepDefinition{ID: "parts", SelectionMode: domain.ModeMulti, Required: true, Visibility: domain.Requires("vehicle")}
	extrasStep  = domain.StepDefinition{ID: "extras", SelectionMode: domain.ModeMulti}
	contactStep = domain.StepDefinition{ID: "contact", SelectionMode: domain.ModeForm, Required: true}
)

func TestStore_ToggleSingle(t *testing.T) {
	s := selection.New(catalog())

	assert.True(t, s.Toggle("vehicle", "v1", domain.ModeSingle))
	assert.Equal(t, []string{"v1"}, s.SelectedIDs("vehicle"))

	// Selecting another replaces.
	assert.True(t, s.Toggle("vehicle", "v2", domain.ModeSingle))
	assert.Equal(t, []string{"v2"}, s.SelectedIDs("vehicle"))

	// Reclick deselects and drops the step entirely.
	assert.True(t, s.Toggle("vehicle", "v2", domain.ModeSingle))
	assert.Empty(t, s.SelectedIDs("vehicle"))
	_, present := s.Serialize().StepSelections["vehicle"]
	assert.False(t, present)
}

func TestStore_ToggleSingleTwiceEqualsFresh(t *testing.T) {
	s := selection.New(catalog())
	fresh := selection.New(catalog())

	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.Toggle("vehicle", "v1", domain.ModeSingle)

	assert.Equal(t, fresh.Serialize(), s.Serialize())
}

func TestStore_ToggleMultiSymmetry(t *testing.T) {
	starts := [][]string{nil, {"p1"}, {"p2"}, {"p1", "p2"}}
	for _, start := range starts {
		for _, id := range []string{"p1", "p2"} {
			s := selection.New(catalog())
			s.SetSelection("parts", start)
			before := s.Serialize()

			s.Toggle("parts", id, domain.ModeMulti)
			s.Toggle("parts", id, domain.ModeMulti)

			assert.ElementsMatch(t, before.StepSelections["parts"], s.SelectedIDs("parts"), "start=%v id=%s", start, id)
		}
	}
}

func TestStore_ToggleIgnoresUnknownReferences(t *testing.T) {
	s := selection.New(catalog())

	assert.False(t, s.Toggle("parts", "nope", domain.ModeMulti))
	assert.False(t, s.Toggle("parts", "v1", domain.ModeMulti), "product of another step")
	assert.False(t, s.Toggle("contact", "p1", domain.ModeForm))
	assert.Empty(t, s.Selections())
}

func TestStore_SetSelection(t *testing.T) {
	s := selection.New(catalog())

	assert.True(t, s.SetSelection("parts", []string{"p1", "nope", "p1", "p2"}))
	assert.Equal(t, []string{"p1", "p2"}, s.SelectedIDs("parts"))

	assert.False(t, s.SetSelection("parts", []string{"p1", "p2"}), "same selection")
	assert.False(t, s.SetSelection("parts", []string{"nope"}), "all unknown is a no-op")
	assert.Equal(t, []string{"p1", "p2"}, s.SelectedIDs("parts"))

	assert.True(t, s.SetSelection("parts", nil))
	assert.Empty(t, s.SelectedIDs("parts"))
	assert.False(t, s.SetSelection("parts", []string{}))
}

func TestStore_ClearSelectionsFrom(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.Toggle("parts", "p1", domain.ModeMulti)
	s.Toggle("extras", "x1", domain.ModeMulti)
	s.SetFieldValue("contact", "email", "a@b.co")

	ordered := []domain.StepDefinition{vehicleStep, partsStep, extrasStep, contactStep}
	cleared := s.ClearSelectionsFrom(1, ordered)

	assert.Equal(t, []string{"parts", "extras", "contact"}, cleared)
	assert.Equal(t, []string{"v1"}, s.SelectedIDs("vehicle"))
	assert.Empty(t, s.SelectedIDs("parts"))
	assert.Empty(t, s.FieldValues("contact"))

	assert.Empty(t, s.ClearSelectionsFrom(10, ordered))
}

func TestStore_FieldValuesAreCopies(t *testing.T) {
	s := selection.New(catalog())
	assert.True(t, s.SetFieldValue("contact", "email", "a@b.co"))
	assert.False(t, s.SetFieldValue("contact", "email", "a@b.co"))

	values := s.FieldValues("contact")
	values["email"] = "mutated"
	assert.Equal(t, "a@b.co", s.FieldValue("contact", "email"))
}

func TestStore_IsStepComplete(t *testing.T) {
	s := selection.New(catalog())

	assert.False(t, s.IsStepComplete(vehicleStep))
	assert.False(t, s.IsStepComplete(partsStep))
	assert.True(t, s.IsStepComplete(extrasStep), "optional multi with zero picks")
	assert.True(t, s.IsStepComplete(contactStep))
	assert.True(t, s.IsStepComplete(domain.StepDefinition{ID: "info", SelectionMode: domain.ModeNone, Required: true}))

	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.Toggle("parts", "p2", domain.ModeMulti)
	assert.True(t, s.IsStepComplete(vehicleStep))
	assert.True(t, s.IsStepComplete(partsStep))
}

func TestStore_TotalsIsPureFold(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("parts", "p1", domain.ModeMulti)
	s.Toggle("extras", "x1", domain.ModeMulti)

	first := s.Totals()
	second := s.Totals()
	assert.Equal(t, first, second)
	assert.Equal(t, 50.0, first.TotalPrice)
	assert.Equal(t, 1500.0, first.TotalWeight)

	first.LineItems[0].ProductID = "mutated"
	assert.Equal(t, "p1", s.Totals().LineItems[0].ProductID)
}

func TestStore_LineItemsForChannel(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.SetSelection("parts", []string{"p1", "p2"})

	assert.Equal(t, []domain.ChannelLineItem{
		{VariantID: "av1", Quantity: 1},
		{VariantID: "a1", Quantity: 1},
		{VariantID: "a2", Quantity: 1},
	}, s.LineItemsForChannel("autospec"))

	assert.Equal(t, []domain.ChannelLineItem{{VariantID: "l1", Quantity: 1}}, s.LineItemsForChannel("linex"))
	assert.Empty(t, s.LineItemsForChannel("unknown"))
}

func TestStore_SetProductsMergesById(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("parts", "p2", domain.ModeMulti)

	s.SetProducts([]domain.Product{
		{ID: "p2", Price: domain.Float(35), Image: "p2.png"},
		{ID: "p3", StepID: "parts", Price: domain.Float(10)},
	})

	p2, ok := s.Product("p2")
	require.True(t, ok)
	assert.Equal(t, "parts", p2.StepID, "identity fields are kept")
	assert.Equal(t, 35.0, p2.PriceOrZero())
	assert.Equal(t, "p2.png", p2.Image)
	assert.Equal(t, 35.0, s.Totals().TotalPrice)

	_, ok = s.Product("v1")
	assert.True(t, ok, "absent ids are not removed")
	assert.Len(t, s.ProductsForStep("parts"), 3)
}

func TestStore_SetProductsDropsMovedSelections(t *testing.T) {
	s := selection.New(catalog())
	s.SetSelection("parts", []string{"p1", "p2"})

	s.SetProducts([]domain.Product{{ID: "p2", StepID: "vehicle"}})

	assert.Equal(t, []string{"p1"}, s.SelectedIDs("parts"))
	assert.Empty(t, s.SelectedIDs("vehicle"))
	assert.Len(t, s.Totals().LineItems, 1)

	s.SetProducts([]domain.Product{{ID: "p1", StepID: "vehicle"}})
	assert.Empty(t, s.SelectedIDs("parts"))
	assert.NotContains(t, s.Selections(), "parts")
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	s := selection.New(catalog())
	s.SetSelection("parts", []string{"p1"})

	ids := s.SelectedIDs("parts")
	ids[0] = "mutated"
	all := s.Selections()
	all["parts"][0] = "mutated"
	p, _ := s.Product("p1")
	p.CompatibleWith[0] = "mutated"
	snap := s.Serialize()
	snap.StepSelections["parts"] = nil

	assert.Equal(t, []string{"p1"}, s.SelectedIDs("parts"))
	fresh, _ := s.Product("p1")
	assert.Equal(t, []string{"v1"}, fresh.CompatibleWith)
}

func TestStore_SerializeRestore(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.SetSelection("parts", []string{"p1", "p2"})
	s.SetFieldValue("contact", "state", "WA")

	snap := s.Serialize()
	assert.Equal(t, domain.SnapshotVersion, snap.Version)

	restored := selection.New(catalog())
	require.True(t, restored.Restore(snap))
	assert.Equal(t, snap, restored.Serialize())
	assert.Equal(t, s.Totals(), restored.Totals())
}

func TestStore_RestoreDropsUnknownProducts(t *testing.T) {
	s := selection.New(catalog())
	ok := s.Restore(domain.Snapshot{
		Version: domain.SnapshotVersion,
		StepSelections: map[string][]string{
			"parts":   {"gone", "p2"},
			"vehicle": {"gone"},
		},
	})

	require.True(t, ok)
	assert.Equal(t, map[string][]string{"parts": {"p2"}}, s.Selections())
}

func TestStore_RestoreRejectsForeignSnapshots(t *testing.T) {
	for _, version := range []string{"bogus", ""} {
		s := selection.New(catalog())
		ok := s.Restore(domain.Snapshot{
			Version:        version,
			StepSelections: map[string][]string{"parts": {"p1"}},
			FieldValues:    map[string]map[string]string{"contact": {"email": "x"}},
		})

		assert.False(t, ok)
		assert.Equal(t, selection.New(catalog()).Serialize(), s.Serialize(), "version %q", version)
	}
}

func TestStore_RestoreHonoursVersionOption(t *testing.T) {
	s := selection.New(catalog(), selection.WithVersion("2.0.0"))
	assert.False(t, s.Restore(domain.Snapshot{Version: domain.SnapshotVersion}))
	assert.True(t, s.Restore(domain.Snapshot{Version: "2.0.0"}))
}

func TestStore_Reset(t *testing.T) {
	s := selection.New(catalog())
	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.SetFieldValue("contact", "email", "a@b.co")

	s.Reset()

	assert.Empty(t, s.Selections())
	assert.Empty(t, s.FieldValues("contact"))
	assert.Len(t, s.Products(), 5)
}

// The reference scenario: vehicle then two parts, then an unknown vehicle id.
func TestStore_Scenario(t *testing.T) {
	s := selection.New([]domain.Product{
		{ID: "v1", StepID: "vehicle", Price: domain.Float(0)},
		{ID: "p1", StepID: "parts", Price: domain.Float(50), CompatibleWith: []string{"v1"}},
		{ID: "p2", StepID: "parts", Price: domain.Float(30)},
	})

	s.Toggle("vehicle", "v1", domain.ModeSingle)
	s.Toggle("parts", "p1", domain.ModeMulti)
	s.Toggle("parts", "p2", domain.ModeMulti)

	totals := s.Totals()
	assert.Equal(t, 80.0, totals.TotalPrice)
	assert.Equal(t, 0.0, totals.TotalWeight)
	assert.Equal(t, []domain.LineItem{
		{StepID: "vehicle", ProductID: "v1"},
		{StepID: "parts", ProductID: "p1"},
		{StepID: "parts", ProductID: "p2"},
	}, totals.LineItems)

	assert.False(t, s.SetSelection("vehicle", []string{"nope"}))
	assert.Equal(t, []string{"v1"}, s.SelectedIDs("vehicle"))
	assert.Equal(t, []string{"p1", "p2"}, s.SelectedIDs("parts"))
}
