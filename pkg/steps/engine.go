package steps

import (
	"log/slog"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
)

// Selections is the read side of the answer state the engine evaluates
// rules against. *selection.Store satisfies it.
type Selections interface {
	SelectedIDs(stepID string) []string
	IsStepComplete(step domain.StepDefinition) bool
	ProductsForStep(stepID string) []domain.Product
}

// CompletionFunc decides whether a step is answered well enough to move past.
type CompletionFunc func(step domain.StepDefinition) bool

// Engine decides which authored steps are currently part of the flow and
// which one is active. The authored order never changes; the visible list is
// the subsequence whose rules hold against the current selections.
//
// Engine is not safe for concurrent use.
type Engine struct {
	steps      []domain.StepDefinition
	selections Selections

	visible []domain.StepDefinition
	active  int

	anchorStepID string
	complete     CompletionFunc
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnchorStep designates the step whose selection drives product compatibility.
func WithAnchorStep(stepID string) Option {
	return func(e *Engine) {
		e.anchorStepID = stepID
	}
}

// WithCompletion replaces the completion predicate used by navigation gates.
// The default is Selections.IsStepComplete.
func WithCompletion(fn CompletionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.complete = fn
		}
	}
}

// WithLogger sets the logger used to report malformed visibility rules.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine over the authored steps and computes the initial
// visible list. The active index starts at 0.
func New(steps []domain.StepDefinition, selections Selections, opts ...Option) *Engine {
	e := &Engine{
		steps:      domain.CloneSteps(steps),
		selections: selections,
		logger:     logging.NewNop(),
	}
	e.complete = selections.IsStepComplete
	for _, opt := range opts {
		opt(e)
	}
	e.Recompute()
	return e
}

// Recompute filters the authored steps by their visibility rules and clamps
// the active index into the new list. It must run after every selection
// change. It reports whether the visible list changed.
func (e *Engine) Recompute() bool {
	next := make([]domain.StepDefinition, 0, len(e.steps))
	for _, step := range e.steps {
		if step.Visibility.Kind == domain.RuleMalformed {
			e.logger.Warn("malformed visibility rule, showing step",
				"step", step.ID, "reason", step.Visibility.Reason)
		}
		if e.Evaluate(step.Visibility) {
			next = append(next, step)
		}
	}

	changed := !sameIDs(e.visible, next)
	e.visible = next

	if e.active > len(e.visible)-1 {
		e.active = max(len(e.visible)-1, 0)
	}
	return changed
}

// Evaluate reports whether rule holds against the current selections.
// Malformed or unknown rules hold, so an authoring mistake never locks a
// user out of a step.
func (e *Engine) Evaluate(rule domain.VisibilityRule) bool {
	switch rule.Kind {
	case domain.RuleAlways:
		return true
	case domain.RuleRequires:
		if len(rule.Requirements) == 0 {
			return true
		}
		return e.holds(rule.Requirements[0])
	case domain.RuleAnyOf:
		for _, req := range rule.Requirements {
			if e.holds(req) {
				return true
			}
		}
		return false
	case domain.RuleAllOf:
		for _, req := range rule.Requirements {
			if !e.holds(req) {
				return false
			}
		}
		return true
	case domain.RuleMalformed:
		return true
	default:
		return true
	}
}

func (e *Engine) holds(req domain.Requirement) bool {
	if req.StepID == "" {
		return true
	}
	selected := e.selections.SelectedIDs(req.StepID)
	if len(selected) == 0 {
		return false
	}
	if req.Equals == "" {
		return true
	}
	for _, id := range selected {
		if id == req.Equals {
			return true
		}
	}
	return false
}

// Steps returns a copy of the authored steps.
func (e *Engine) Steps() []domain.StepDefinition {
	return domain.CloneSteps(e.steps)
}

// VisibleSteps returns a copy of the current visible list.
func (e *Engine) VisibleSteps() []domain.StepDefinition {
	return domain.CloneSteps(e.visible)
}

// ActiveIndex returns the position of the active step in the visible list.
func (e *Engine) ActiveIndex() int {
	return e.active
}

// ActiveStep returns the active step, or false when nothing is visible.
func (e *Engine) ActiveStep() (domain.StepDefinition, bool) {
	if len(e.visible) == 0 {
		return domain.StepDefinition{}, false
	}
	return e.visible[e.active].Clone(), true
}

// IsLast reports whether the active step is the last visible one.
func (e *Engine) IsLast() bool {
	return e.active >= len(e.visible)-1
}

// IsComplete applies the configured completion predicate.
func (e *Engine) IsComplete(step domain.StepDefinition) bool {
	return e.complete(step)
}

// Next moves one step forward. Callers gate this on the active step being
// complete; the engine does not. It reports whether the index moved.
func (e *Engine) Next() bool {
	if e.active >= len(e.visible)-1 {
		return false
	}
	e.active++
	return true
}

// Previous moves one step back. It reports whether the index moved.
func (e *Engine) Previous() bool {
	if e.active <= 0 {
		return false
	}
	e.active--
	return true
}

// AccessibleIndex is the furthest visible position a user may jump to: the
// first incomplete step, or the last position when every step is complete.
func (e *Engine) AccessibleIndex() int {
	for i, step := range e.visible {
		if !e.complete(step) {
			return i
		}
	}
	return max(len(e.visible)-1, 0)
}

// JumpTo activates index when it is in range and not beyond AccessibleIndex.
func (e *Engine) JumpTo(index int) bool {
	if index < 0 || index >= len(e.visible) || index > e.AccessibleIndex() {
		return false
	}
	e.active = index
	return true
}

// SetActiveIndex activates index without the accessibility gate. Out of range
// values are ignored.
func (e *Engine) SetActiveIndex(index int) bool {
	if index < 0 || index >= len(e.visible) {
		return false
	}
	e.active = index
	return true
}

// SetActiveByID re-anchors on stepID if it is visible.
func (e *Engine) SetActiveByID(stepID string) bool {
	idx := e.IndexOf(stepID)
	if idx < 0 {
		return false
	}
	e.active = idx
	return true
}

// IndexOf returns the position of stepID in the visible list, or -1.
func (e *Engine) IndexOf(stepID string) int {
	for i, step := range e.visible {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

// AnchorID returns the product selected on the anchor step, or "".
func (e *Engine) AnchorID() string {
	if e.anchorStepID == "" {
		return ""
	}
	selected := e.selections.SelectedIDs(e.anchorStepID)
	if len(selected) == 0 {
		return ""
	}
	return selected[0]
}

// AnchorStepID returns the configured anchor step.
func (e *Engine) AnchorStepID() string {
	return e.anchorStepID
}

// ProductsForStep partitions the products of stepID by compatibility with
// the current anchor selection. Without an anchor selection every product
// is compatible.
func (e *Engine) ProductsForStep(stepID string) domain.ProductGroups {
	groups := domain.ProductGroups{
		Compatible:   []domain.Product{},
		Incompatible: []domain.Product{},
	}
	anchor := e.AnchorID()
	for _, p := range e.selections.ProductsForStep(stepID) {
		if p.IsCompatibleWith(anchor) {
			groups.Compatible = append(groups.Compatible, p)
		} else {
			groups.Incompatible = append(groups.Incompatible, p)
		}
	}
	return groups
}

func sameIDs(a, b []domain.StepDefinition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
