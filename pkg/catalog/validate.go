package catalog

import (
	"fmt"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
)

// DefinitionError is one authoring problem, located by a path such as
// "steps[2].visibleWhen".
type DefinitionError struct {
	Path   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks a definition for authoring mistakes the runtime would
// otherwise silently tolerate. All problems are returned together as a
// *schema.AggregateError of *DefinitionError.
func Validate(def *domain.Definition) error {
	v := &validator{def: def}
	v.steps()
	v.products()
	v.channels()

	if len(v.errs) > 0 {
		return &schema.AggregateError{Errors: v.errs}
	}
	return nil
}

type validator struct {
	def  *domain.Definition
	errs []error
}

func (v *validator) add(path, format string, args ...any) {
	v.errs = append(v.errs, &DefinitionError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) steps() {
	if len(v.def.Steps) == 0 {
		v.add("steps", "at least one step is required")
		return
	}

	seen := make(map[string]int)
	for i, step := range v.def.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		if step.ID == "" {
			v.add(path, "missing id")
		} else if prev, dup := seen[step.ID]; dup {
			v.add(path, "duplicate step id %q (first at steps[%d])", step.ID, prev)
		} else {
			seen[step.ID] = i
		}

		if !step.SelectionMode.Valid() {
			v.add(path+".selectionMode", "unknown mode %q", step.SelectionMode)
		}

		if step.SelectionMode == domain.ModeForm {
			if len(step.Fields) == 0 {
				v.add(path+".fields", "form step has no fields")
			}
			if _, err := schema.FromStep(step); err != nil {
				v.add(path+".fields", "%v", err)
			}
		} else if len(step.Fields) > 0 {
			v.add(path+".fields", "fields are only used by form steps")
		}

		v.rule(path+".visibleWhen", step)
	}

	if anchor := v.def.AnchorStepID; anchor != "" {
		step, ok := v.def.Step(anchor)
		switch {
		case !ok:
			v.add("anchorStepId", "unknown step %q", anchor)
		case step.SelectionMode != domain.ModeSingle:
			v.add("anchorStepId", "anchor step %q must be single select", anchor)
		}
	}
}

func (v *validator) rule(path string, step domain.StepDefinition) {
	rule := step.Visibility
	if rule.Kind == domain.RuleMalformed {
		v.add(path, "malformed rule: %s", rule.Reason)
		return
	}
	if rule.Kind == domain.RuleAnyOf && len(rule.Requirements) == 0 {
		v.add(path, "anyOf is empty and never holds")
	}

	for j, req := range rule.Requirements {
		reqPath := fmt.Sprintf("%s[%d]", path, j)
		if req.StepID == "" {
			continue
		}
		if req.StepID == step.ID {
			v.add(reqPath, "step depends on itself")
			continue
		}
		if _, ok := v.def.Step(req.StepID); !ok {
			v.add(reqPath, "unknown step %q", req.StepID)
			continue
		}
		if req.Equals != "" && !v.productOn(req.Equals, req.StepID) {
			v.add(reqPath, "product %q is not offered on step %q", req.Equals, req.StepID)
		}
	}
}

func (v *validator) productOn(productID, stepID string) bool {
	for _, p := range v.def.Products {
		if p.ID == productID && p.StepID == stepID {
			return true
		}
	}
	return false
}

func (v *validator) products() {
	ids := make(map[string]bool, len(v.def.Products))
	for i, p := range v.def.Products {
		path := fmt.Sprintf("products[%d]", i)
		if p.ID == "" {
			v.add(path, "missing id")
			continue
		}
		if ids[p.ID] {
			v.add(path, "duplicate product id %q", p.ID)
		}
		ids[p.ID] = true

		step, ok := v.def.Step(p.StepID)
		switch {
		case !ok:
			v.add(path+".stepId", "unknown step %q", p.StepID)
		case step.SelectionMode == domain.ModeForm || step.SelectionMode == domain.ModeNone:
			v.add(path+".stepId", "step %q does not offer products", p.StepID)
		}
		if p.Price != nil && *p.Price < 0 {
			v.add(path+".price", "must not be negative")
		}
		if p.Weight != nil && *p.Weight < 0 {
			v.add(path+".weight", "must not be negative")
		}
	}

	for i, p := range v.def.Products {
		for _, ref := range p.CompatibleWith {
			if !ids[ref] {
				v.add(fmt.Sprintf("products[%d].compatibleWith", i), "unknown product %q", ref)
			}
		}
	}
}

func (v *validator) channels() {
	known := make(map[string]bool, len(v.def.Channels))
	for i, c := range v.def.Channels {
		if c.ID == "" {
			v.add(fmt.Sprintf("channels[%d]", i), "missing id")
			continue
		}
		known[c.ID] = true
	}
	if len(known) == 0 {
		return
	}

	if d := v.def.DefaultChannel; d != "" && !known[d] {
		v.add("defaultChannel", "unknown channel %q", d)
	}
	for i, r := range v.def.Routes {
		path := fmt.Sprintf("routes[%d]", i)
		if !known[r.Channel] {
			v.add(path+".channel", "unknown channel %q", r.Channel)
		}
		step, ok := v.def.Step(r.StepID)
		if !ok {
			v.add(path+".stepId", "unknown step %q", r.StepID)
			continue
		}
		if _, ok := step.Field(r.FieldID); !ok {
			v.add(path+".fieldId", "step %q has no field %q", r.StepID, r.FieldID)
		}
	}
	for i, p := range v.def.Products {
		for channel := range p.Variants {
			if !known[channel] {
				v.add(fmt.Sprintf("products[%d].variants", i), "unknown channel %q", channel)
			}
		}
	}
}
