package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// Field binds a form field id to its validator.
type Field struct {
	ID       string
	Required bool
	Type     Type
}

// Schema is the ordered list of fields of one form step.
type Schema []Field

// FromStep builds the schema of a form step. Unknown validator kinds are an error.
func FromStep(step domain.StepDefinition) (Schema, error) {
	s := make(Schema, 0, len(step.Fields))
	for _, f := range step.Fields {
		typ, err := ParseType(f.Validator)
		if err != nil {
			return nil, fmt.Errorf("step %s field %s: %w", step.ID, f.ID, err)
		}
		s = append(s, Field{ID: f.ID, Required: f.Required, Type: typ})
	}
	return s, nil
}

// Field returns the field with the given id.
func (s Schema) Field(id string) (Field, bool) {
	for _, f := range s {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Check validates a single value. Blank optional values pass.
func (f Field) Check(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if f.Required {
			return &ValidationError{Key: f.ID, Reason: f.Type.Missing()}
		}
		return nil
	}
	if err := f.Type.Validate(trimmed); err != nil {
		return &ValidationError{Key: f.ID, Reason: err.Error(), Value: value}
	}
	return nil
}

// Validate checks every field of the schema against values.
// Returns an *AggregateError with all failures in field order.
func Validate(schema Schema, values map[string]string) error {
	var errs []error
	for _, f := range schema {
		if err := f.Check(values[f.ID]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only the named fields.
// Fields not defined in the schema are reported as errors.
func ValidateFields(schema Schema, values map[string]string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	for _, id := range fields {
		f, ok := schema.Field(id)
		if !ok {
			errs = append(errs, &ValidationError{Key: id, Reason: "not defined in schema"})
			continue
		}
		if err := f.Check(values[id]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// IsComplete reports whether every required field holds a valid value.
// Optional fields do not block completion, even when invalid.
func IsComplete(schema Schema, values map[string]string) bool {
	for _, f := range schema {
		if !f.Required {
			continue
		}
		if f.Check(values[f.ID]) != nil {
			return false
		}
	}
	return true
}
