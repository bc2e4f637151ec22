package catalog

import (
	"fmt"
	"sort"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeRule converts an authored visibleWhen value into a rule. Absent
// values are always visible; shapes that cannot be understood become
// malformed rules instead of errors.
func DecodeRule(raw any) domain.VisibilityRule {
	if raw == nil {
		return domain.Always()
	}

	m, ok := toStringMap(raw)
	if !ok {
		return domain.Malformed(fmt.Sprintf("expected an object, got %T", raw))
	}
	if len(m) == 0 {
		return domain.Always()
	}
	if len(m) > 1 {
		return domain.Malformed(fmt.Sprintf("expected exactly one of requires, anyOf, allOf, got %v", sortedKeys(m)))
	}

	for key, value := range m {
		switch key {
		case "requires":
			req, err := decodeRequirement(value)
			if err != nil {
				return domain.Malformed("requires: " + err.Error())
			}
			return domain.VisibilityRule{Kind: domain.RuleRequires, Requirements: []domain.Requirement{req}}
		case "anyOf", "allOf":
			reqs, err := decodeRequirements(value)
			if err != nil {
				return domain.Malformed(key + ": " + err.Error())
			}
			if key == "anyOf" {
				return domain.AnyOf(reqs...)
			}
			return domain.AllOf(reqs...)
		default:
			return domain.Malformed(fmt.Sprintf("unknown key %q", key))
		}
	}
	return domain.Always()
}

func decodeRequirement(raw any) (domain.Requirement, error) {
	var req domain.Requirement
	m, ok := toStringMap(raw)
	if !ok {
		return req, fmt.Errorf("expected an object, got %T", raw)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(m); err != nil {
		return req, err
	}
	return req, nil
}

func decodeRequirements(raw any) ([]domain.Requirement, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
	reqs := make([]domain.Requirement, 0, len(items))
	for i, item := range items {
		req, err := decodeRequirement(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// toStringMap normalises the two map shapes produced by JSON and YAML decoding.
func toStringMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
