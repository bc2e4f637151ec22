package domain

import "encoding/json"

// RuleKind tags the variant held by a VisibilityRule.
type RuleKind string

const (
	RuleAlways    RuleKind = ""
	RuleRequires  RuleKind = "requires"
	RuleAnyOf     RuleKind = "anyOf"
	RuleAllOf     RuleKind = "allOf"
	RuleMalformed RuleKind = "malformed"
)

// Requirement holds when StepID has at least one selection and, if Equals is
// set, Equals is among the selected ids. An empty StepID always holds.
type Requirement struct {
	StepID string `json:"stepId" mapstructure:"stepId"`
	Equals string `json:"equals,omitempty" mapstructure:"equals"`
}

// VisibilityRule is a predicate over the current selections.
//
// RuleRequires uses exactly one entry in Requirements; RuleAnyOf and RuleAllOf
// use all of them. RuleMalformed records why an authored rule could not be
// understood; it evaluates as visible.
type VisibilityRule struct {
	Kind         RuleKind
	Requirements []Requirement
	Reason       string
}

// Always returns the rule of a step without a visibility condition.
func Always() VisibilityRule { return VisibilityRule{} }

// Requires builds a single-requirement rule.
func Requires(stepID string, equals ...string) VisibilityRule {
	req := Requirement{StepID: stepID}
	if len(equals) > 0 {
		req.Equals = equals[0]
	}
	return VisibilityRule{Kind: RuleRequires, Requirements: []Requirement{req}}
}

// AnyOf builds a rule that holds when at least one requirement holds.
func AnyOf(reqs ...Requirement) VisibilityRule {
	return VisibilityRule{Kind: RuleAnyOf, Requirements: reqs}
}

// AllOf builds a rule that holds when every requirement holds.
func AllOf(reqs ...Requirement) VisibilityRule {
	return VisibilityRule{Kind: RuleAllOf, Requirements: reqs}
}

// Malformed records an authoring mistake. The step stays visible.
func Malformed(reason string) VisibilityRule {
	return VisibilityRule{Kind: RuleMalformed, Reason: reason}
}

// Clone copies the requirement slice.
func (r VisibilityRule) Clone() VisibilityRule {
	out := r
	if r.Requirements != nil {
		out.Requirements = append([]Requirement(nil), r.Requirements...)
	}
	return out
}

// StepRefs lists the step ids the rule depends on, in authored order.
func (r VisibilityRule) StepRefs() []string {
	refs := make([]string, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		if req.StepID != "" {
			refs = append(refs, req.StepID)
		}
	}
	return refs
}

// MarshalJSON renders the rule in its authored shape
// ({"requires":{...}}, {"anyOf":[...]}, {"allOf":[...]}), or null when absent.
func (r VisibilityRule) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RuleAlways:
		return []byte("null"), nil
	case RuleRequires:
		var req Requirement
		if len(r.Requirements) > 0 {
			req = r.Requirements[0]
		}
		return json.Marshal(map[string]any{"requires": req})
	case RuleAnyOf:
		return json.Marshal(map[string]any{"anyOf": r.Requirements})
	case RuleAllOf:
		return json.Marshal(map[string]any{"allOf": r.Requirements})
	default:
		return json.Marshal(map[string]any{"malformed": r.Reason})
	}
}
