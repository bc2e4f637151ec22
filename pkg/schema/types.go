package schema

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the validator kind (e.g., "email", "phone").
	Name() string
	// Missing is the message reported when a required value is blank.
	Missing() string
	// Validate checks a trimmed, non-blank value.
	Validate(value string) error
}

const requiredMessage = "This field is required."

var (
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern    = regexp.MustCompile(`^[0-9+()\s-]{6,}$`)
	postcodePattern = regexp.MustCompile(`^[0-9A-Za-z\s-]{3,10}$`)
)

// PatternType validates values against a regular expression.
type PatternType struct {
	name    string
	missing string
	invalid string
	pattern *regexp.Regexp
}

func (t *PatternType) Name() string { return t.name }
func (t *PatternType) Missing() string { return t.missing }

func (t *PatternType) Validate(value string) error {
	if !t.pattern.MatchString(value) {
		return errors.New(t.invalid)
	}
	return nil
}

// PresenceType accepts any non-blank value.
type PresenceType struct {
	name    string
	missing string
}

func (t *PresenceType) Name() string { return t.name }
func (t *PresenceType) Missing() string { return t.missing }
func (t *PresenceType) Validate(value string) error { return nil }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	missing  string
	validate func(string) error
}

func (t *CustomType) Name() string { return t.name }
func (t *CustomType) Missing() string { return t.missing }

func (t *CustomType) Validate(value string) error {
	return t.validate(value)
}

// --- Factory Functions ---

// None accepts anything; a required field only needs to be non-blank.
func None() Type { return &PresenceType{name: string(domain.ValidatorNone), missing: requiredMessage} }

// Text requires a non-blank value.
func Text() Type { return &PresenceType{name: string(domain.ValidatorText), missing: requiredMessage} }

// State requires a selected state.
func State() Type { return &PresenceType{name: string(domain.ValidatorState), missing: "Select your state."} }

// Email validates an address of the form a@b.c.
func Email() Type {
	return &PatternType{
		name:    string(domain.ValidatorEmail),
		missing: "Enter your email address.",
		invalid: "Enter a valid email address.",
		pattern: emailPattern,
	}
}

// Phone validates digits with optional + ( ) - and spaces, at least six characters.
func Phone() Type {
	return &PatternType{
		name:    string(domain.ValidatorPhone),
		missing: "Enter your phone number.",
		invalid: "Enter a valid phone number.",
		pattern: phonePattern,
	}
}

// Postcode validates 3 to 10 alphanumerics, spaces or dashes.
func Postcode() Type {
	return &PatternType{
		name:    string(domain.ValidatorPostcode),
		missing: "Enter your postcode.",
		invalid: "Enter a valid postcode.",
		pattern: postcodePattern,
	}
}

// Custom creates a validator with a user-defined function.
func Custom(name, missing string, validate func(string) error) Type {
	if missing == "" {
		missing = requiredMessage
	}
	return &CustomType{name: name, missing: missing, validate: validate}
}

// ParseType converts a validator kind to a Type. An empty kind means none.
func ParseType(kind domain.ValidatorKind) (Type, error) {
	switch kind {
	case "", domain.ValidatorNone:
		return None(), nil
	case domain.ValidatorText:
		return Text(), nil
	case domain.ValidatorEmail:
		return Email(), nil
	case domain.ValidatorPhone:
		return Phone(), nil
	case domain.ValidatorState:
		return State(), nil
	case domain.ValidatorPostcode:
		return Postcode(), nil
	default:
		return nil, fmt.Errorf("unsupported validator: %s", kind)
	}
}
