package quoteflow

import (
	"context"
	"fmt"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
)

// Result is what every intent returns: whether state changed, which
// downstream steps a cascade cleared, and the view to render next.
type Result struct {
	Changed bool     `json:"changed"`
	Cleared []string `json:"cleared,omitempty"`
	View    View     `json:"view"`
	// Diff holds the persisted changes. Only Service.Do sets it.
	Diff *domain.SessionDiff `json:"diff,omitempty"`
}

// Toggle selects or deselects productID on a visible single or multi step.
// Reclicking the sole selection of a single step clears it. On the anchor
// step the picker values follow the selection.
func (w *Wizard) Toggle(ctx context.Context, stepID, productID string) Result {
	step, ok := w.visibleStep(stepID)
	if !ok || (step.SelectionMode != domain.ModeSingle && step.SelectionMode != domain.ModeMulti) {
		return w.finish(ctx, "toggle", false, nil)
	}
	changed, cleared := w.applySelection(step, false, func() bool {
		if !w.store.Toggle(stepID, productID, step.SelectionMode) {
			return false
		}
		w.syncVehicle(stepID)
		return true
	})
	return w.finish(ctx, "toggle", changed, cleared)
}

// SetSelection replaces the answer of stepID. A nil or empty list clears
// the step; unknown ids are dropped and a list of only unknown ids changes
// nothing.
func (w *Wizard) SetSelection(ctx context.Context, stepID string, productIDs []string) Result {
	step, ok := w.def.Step(stepID)
	if !ok {
		return w.finish(ctx, "set_selection", false, nil)
	}
	changed, cleared := w.applySelection(step, false, func() bool {
		if !w.store.SetSelection(stepID, productIDs) {
			return false
		}
		w.syncVehicle(stepID)
		return true
	})
	return w.finish(ctx, "set_selection", changed, cleared)
}

// SetField records a form value. Changing a routed field re-routes the
// channel and re-enriches when the channel moved.
func (w *Wizard) SetField(ctx context.Context, stepID, fieldID, value string) Result {
	if _, ok := w.schemas[stepID].Field(fieldID); !ok {
		return w.finish(ctx, "set_field", false, nil)
	}
	value, err := schema.SanitizeValue(value, 0)
	if err != nil {
		w.logger.Warn("field value rejected", "step_id", stepID, "field_id", fieldID, "err", err)
		w.status = &Status{Kind: StatusError, Message: MsgValueRejected}
		return w.finish(ctx, "set_field", false, nil)
	}
	changed := w.store.SetFieldValue(stepID, fieldID, value)

	if changed && w.forcedChannel == "" && w.isRouted(stepID, fieldID) {
		if next := w.resolveChannel(w.def.DefaultChannel); next != w.channel {
			w.logger.Debug("channel rerouted", "from", w.channel, "to", next)
			w.channel = next
			_ = w.Enrich(ctx)
		}
	}
	w.engine.Recompute()
	return w.finish(ctx, "set_field", changed, nil)
}

// Blur marks a field as touched so its validation message shows.
func (w *Wizard) Blur(ctx context.Context, stepID, fieldID string) Result {
	if _, ok := w.schemas[stepID].Field(fieldID); !ok {
		return w.finish(ctx, "blur", false, nil)
	}
	key := touchKey(stepID, fieldID)
	changed := !w.touched[key]
	w.touched[key] = true
	return w.finish(ctx, "blur", changed, nil)
}

// Next advances one visible step. It fails with domain.ErrStepIncomplete
// while the active step is not complete.
func (w *Wizard) Next(ctx context.Context) (Result, error) {
	if step, ok := w.engine.ActiveStep(); ok && !w.isStepComplete(step) {
		return w.finish(ctx, "next", false, nil), fmt.Errorf("cannot leave %q: %w", step.ID, domain.ErrStepIncomplete)
	}
	changed := w.engine.Next()
	w.viewed(changed)
	return w.finish(ctx, "next", changed, nil), nil
}

// Previous moves back one visible step, or closes the confirmation when
// a submission has completed.
func (w *Wizard) Previous(ctx context.Context) Result {
	if w.submitted != nil {
		w.submitted = nil
		return w.finish(ctx, "previous", true, nil)
	}
	changed := w.engine.Previous()
	w.viewed(changed)
	return w.finish(ctx, "previous", changed, nil)
}

// JumpTo activates a visible index up to the accessible index.
func (w *Wizard) JumpTo(ctx context.Context, index int) Result {
	changed := index != w.engine.ActiveIndex() && w.engine.JumpTo(index)
	w.viewed(changed)
	return w.finish(ctx, "jump", changed, nil)
}

// Restart clears every answer, resets the channel, returns to the first
// step and deletes the persisted session.
func (w *Wizard) Restart(ctx context.Context) Result {
	w.store.Reset()
	w.touched = make(map[string]bool)
	w.showErrors = false
	w.submitted = nil
	w.status = nil
	w.channel = w.resolveChannel("")
	w.engine.Recompute()
	w.engine.SetActiveIndex(0)

	if w.sessions != nil {
		if err := w.sessions.Delete(ctx, w.sessionID); err != nil {
			w.logger.Warn("failed to delete session", "err", err)
		}
	}
	w.metrics.Intent("restart", true, 0)
	w.logger.Debug("intent handled", "intent", "restart")
	return Result{Changed: true, View: w.View()}
}

// applySelection runs mutate against step and, when a single select answer
// changed (or force is set), clears every step after it. Clearing uses the
// visible list recomputed after the mutation and then the list as it was
// before, so steps the change hid are cleared too. Visibility is recomputed
// again and the user stays anchored on step.
func (w *Wizard) applySelection(step domain.StepDefinition, force bool, mutate func() bool) (bool, []string) {
	before := w.engine.VisibleSteps()
	changed := mutate()

	var cleared []string
	if (changed && step.SelectionMode == domain.ModeSingle) || force {
		w.engine.Recompute()
		after := w.engine.VisibleSteps()
		if idx := indexOfStep(after, step.ID); idx >= 0 {
			cleared = w.store.ClearSelectionsFrom(idx+1, after)
		}
		if idx := indexOfStep(before, step.ID); idx >= 0 {
			for _, id := range w.store.ClearSelectionsFrom(idx+1, before) {
				cleared = appendUnique(cleared, id)
			}
		}
		for _, id := range cleared {
			w.untouchStep(id)
		}
	}

	w.engine.Recompute()
	w.engine.SetActiveByID(step.ID)
	if changed || len(cleared) > 0 {
		w.submitted = nil
	}
	return changed || len(cleared) > 0, cleared
}

func (w *Wizard) finish(ctx context.Context, intent string, changed bool, cleared []string) Result {
	if changed {
		w.persist(ctx)
	}
	w.metrics.Intent(intent, changed, len(cleared))
	w.logger.Debug("intent handled", "intent", intent, "changed", changed, "cleared", cleared)
	return Result{Changed: changed, Cleared: cleared, View: w.View()}
}

func (w *Wizard) viewed(changed bool) {
	if changed {
		w.metrics.StepViewed(w.activeStepID())
	}
}

func (w *Wizard) visibleStep(stepID string) (domain.StepDefinition, bool) {
	for _, step := range w.engine.VisibleSteps() {
		if step.ID == stepID {
			return step, true
		}
	}
	return domain.StepDefinition{}, false
}

func (w *Wizard) untouchStep(stepID string) {
	for _, f := range w.schemas[stepID] {
		delete(w.touched, touchKey(stepID, f.ID))
	}
}

func touchKey(stepID, fieldID string) string {
	return stepID + "." + fieldID
}

func indexOfStep(list []domain.StepDefinition, stepID string) int {
	for i, s := range list {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
