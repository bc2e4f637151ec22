/*
Package selection holds the per-session answer state of a wizard.

A Store indexes the product catalog, records which products were chosen on
each step and which values were typed into form steps, and derives totals and
channel line items from them. It knows nothing about step ordering or
visibility; those live in package steps.

Mutations report whether anything changed so callers can decide whether
downstream answers must be cleared:

	store := selection.New(products)
	if store.Toggle("vehicle", "v1", domain.ModeSingle) {
	    store.ClearSelectionsFrom(idx+1, visible)
	}
	totals := store.Totals()
*/
package selection
