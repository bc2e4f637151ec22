package quoteflow

import (
	"context"
	"sort"
	"strings"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
)

// Picker values live as field values of the anchor step.
const (
	FieldMake  = "make"
	FieldModel = "model"
	FieldYear  = "year"

	otherMake = "Other"
)

// VehicleOptions lists what the cascading make/model/year picker offers.
type VehicleOptions struct {
	Makes  []string                       `json:"makes"`
	Models map[string][]string            `json:"models"`
	Years  map[string]map[string][]string `json:"years"`
}

// VehicleOptions derives the picker choices from the anchor step's products.
// Makes and models are sorted; years are de-duplicated and sorted.
func (w *Wizard) VehicleOptions() VehicleOptions {
	opts := VehicleOptions{
		Makes:  []string{},
		Models: make(map[string][]string),
		Years:  make(map[string]map[string][]string),
	}
	if w.def.AnchorStepID == "" {
		return opts
	}

	for _, p := range w.store.ProductsForStep(w.def.AnchorStepID) {
		mk, model := vehicleKey(p)
		if _, ok := opts.Models[mk]; !ok {
			opts.Makes = append(opts.Makes, mk)
			opts.Models[mk] = []string{}
			opts.Years[mk] = make(map[string][]string)
		}
		if !contains(opts.Models[mk], model) {
			opts.Models[mk] = append(opts.Models[mk], model)
		}
		for _, y := range p.Years {
			y = strings.TrimSpace(y)
			if y != "" && !contains(opts.Years[mk][model], y) {
				opts.Years[mk][model] = append(opts.Years[mk][model], y)
			}
		}
	}

	sortStrings(opts.Makes)
	for m := range opts.Models {
		sortStrings(opts.Models[m])
		for model := range opts.Years[m] {
			sortStrings(opts.Years[m][model])
		}
	}
	return opts
}

// Vehicle returns the current picker values.
func (w *Wizard) Vehicle() domain.VehicleSelection {
	anchor := w.def.AnchorStepID
	return domain.VehicleSelection{
		Make:  w.store.FieldValue(anchor, FieldMake),
		Model: w.store.FieldValue(anchor, FieldModel),
		Year:  w.store.FieldValue(anchor, FieldYear),
	}
}

// SetVehicleMake changes the make, resets model and year, and clears the
// anchor selection and every step after it.
func (w *Wizard) SetVehicleMake(ctx context.Context, vehicleMake string) Result {
	return w.pickVehicle(ctx, "vehicle_make", FieldMake, vehicleMake, FieldModel, FieldYear)
}

// SetVehicleModel changes the model, resets the year, and clears the anchor
// selection and every step after it.
func (w *Wizard) SetVehicleModel(ctx context.Context, model string) Result {
	return w.pickVehicle(ctx, "vehicle_model", FieldModel, model, FieldYear)
}

// SetVehicleYear records the year and selects the anchor product matching
// make and model. Without a match the anchor selection is cleared.
func (w *Wizard) SetVehicleYear(ctx context.Context, year string) Result {
	anchor, ok := w.def.Step(w.def.AnchorStepID)
	if !ok {
		return w.finish(ctx, "vehicle_year", false, nil)
	}
	year, ok = w.sanitizePick(FieldYear, year)
	if !ok || w.store.FieldValue(anchor.ID, FieldYear) == year {
		return w.finish(ctx, "vehicle_year", false, nil)
	}

	w.store.SetFieldValue(anchor.ID, FieldYear, year)
	_, cleared := w.applySelection(anchor, false, func() bool {
		v := w.Vehicle()
		if product, found := w.findVehicle(v.Make, v.Model); found && year != "" {
			return w.store.SetSelection(anchor.ID, []string{product.ID})
		}
		return w.store.SetSelection(anchor.ID, nil)
	})
	return w.finish(ctx, "vehicle_year", true, cleared)
}

func (w *Wizard) pickVehicle(ctx context.Context, intent, field, value string, resets ...string) Result {
	anchor, ok := w.def.Step(w.def.AnchorStepID)
	if !ok {
		return w.finish(ctx, intent, false, nil)
	}
	value, ok = w.sanitizePick(field, value)
	if !ok || w.store.FieldValue(anchor.ID, field) == value {
		return w.finish(ctx, intent, false, nil)
	}

	w.store.SetFieldValue(anchor.ID, field, value)
	for _, f := range resets {
		w.store.SetFieldValue(anchor.ID, f, "")
	}
	_, cleared := w.applySelection(anchor, true, func() bool {
		return w.store.SetSelection(anchor.ID, nil)
	})
	return w.finish(ctx, intent, true, cleared)
}

// sanitizePick applies the form value limits to a picker value. A rejected
// value sets the error status.
func (w *Wizard) sanitizePick(field, value string) (string, bool) {
	clean, err := schema.SanitizeValue(value, 0)
	if err != nil {
		w.logger.Warn("vehicle value rejected", "field_id", field, "err", err)
		w.status = &Status{Kind: StatusError, Message: MsgValueRejected}
		return "", false
	}
	return clean, true
}

// syncVehicle rewrites the picker values after the anchor selection changed
// directly. The year is kept only while make and model stay the same.
func (w *Wizard) syncVehicle(stepID string) {
	anchor := w.def.AnchorStepID
	if anchor == "" || stepID != anchor {
		return
	}
	var mk, model string
	if ids := w.store.SelectedIDs(anchor); len(ids) > 0 {
		if p, ok := w.store.Product(ids[0]); ok {
			mk, model = vehicleKey(p)
		}
	}
	current := w.Vehicle()
	if current.Make == mk && current.Model == model {
		return
	}
	w.store.SetFieldValue(anchor, FieldMake, mk)
	w.store.SetFieldValue(anchor, FieldModel, model)
	w.store.SetFieldValue(anchor, FieldYear, "")
}

// findVehicle matches make and model case-insensitively.
func (w *Wizard) findVehicle(mk, model string) (domain.Product, bool) {
	if mk == "" || model == "" {
		return domain.Product{}, false
	}
	for _, p := range w.store.ProductsForStep(w.def.AnchorStepID) {
		pm, pmodel := vehicleKey(p)
		if strings.EqualFold(pm, mk) && strings.EqualFold(pmodel, model) {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (w *Wizard) applyPreselect() {
	if w.preselect == "" {
		return
	}
	anchor, ok := w.def.Step(w.def.AnchorStepID)
	if !ok {
		return
	}
	product, ok := w.store.Product(w.preselect)
	if !ok || product.StepID != anchor.ID {
		w.logger.Debug("preselected product ignored", "product", w.preselect)
		return
	}
	w.applySelection(anchor, false, func() bool {
		changed := w.store.SetSelection(anchor.ID, []string{product.ID})
		w.syncVehicle(anchor.ID)
		return changed
	})
}

// vehicleKey falls back to "Other" for the make and to name or id for the model.
func vehicleKey(p domain.Product) (string, string) {
	mk := p.Make
	if mk == "" {
		mk = otherMake
	}
	model := p.Model
	if model == "" {
		model = p.Name
	}
	if model == "" {
		model = p.ID
	}
	return mk, model
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortStrings(list []string) {
	sort.Strings(list)
}
