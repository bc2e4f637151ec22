package schema

import (
	"errors"
	"testing"

	"github.com/aretw0/quoteflow/pkg/domain"
)

func contactStep() domain.StepDefinition {
	return domain.StepDefinition{
		ID:            "contact",
		SelectionMode: domain.ModeForm,
		Fields: []domain.FieldDescriptor{
			{ID: "firstName", Required: true, Validator: domain.ValidatorText},
			{ID: "lastName", Required: true, Validator: domain.ValidatorText},
			{ID: "email", Required: true, Validator: domain.ValidatorEmail},
			{ID: "phone", Required: true, Validator: domain.ValidatorPhone},
			{ID: "state", Required: true, Validator: domain.ValidatorState},
			{ID: "postcode", Validator: domain.ValidatorPostcode},
			{ID: "notes"},
		},
	}
}

func validValues() map[string]string {
	return map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"phone":     "+61 (08) 9000-0000",
		"state":     "WA",
	}
}

func TestFromStep(t *testing.T) {
	s, err := FromStep(contactStep())
	if err != nil {
		t.Fatalf("FromStep() error = %v", err)
	}
	if len(s) != 7 {
		t.Fatalf("FromStep() = %d fields, want 7", len(s))
	}
	if s[2].Type.Name() != "email" {
		t.Errorf("field 2 type = %q, want email", s[2].Type.Name())
	}
	if s[6].Type.Name() != "none" {
		t.Errorf("empty validator should parse as none, got %q", s[6].Type.Name())
	}

	bad := contactStep()
	bad.Fields[0].Validator = "luhn"
	if _, err := FromStep(bad); err == nil {
		t.Error("FromStep() should fail on unknown validator")
	}
}

func TestValidate_Success(t *testing.T) {
	s, _ := FromStep(contactStep())
	if err := Validate(s, validValues()); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Messages(t *testing.T) {
	s, _ := FromStep(contactStep())

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"blank first name", "firstName", "  ", "This field is required."},
		{"blank email", "email", "", "Enter your email address."},
		{"bad email", "email", "ada@example", "Enter a valid email address."},
		{"blank phone", "phone", "", "Enter your phone number."},
		{"bad phone", "phone", "12ab", "Enter a valid phone number."},
		{"blank state", "state", "", "Select your state."},
		{"bad postcode", "postcode", "!!", "Enter a valid postcode."},
		{"long postcode", "postcode", "12345678901", "Enter a valid postcode."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			values[tt.field] = tt.value

			err := Validate(s, values)
			if err == nil {
				t.Fatal("Validate() should fail")
			}

			msgs := Messages(err)
			if len(msgs) != 1 {
				t.Fatalf("Messages() = %v, want exactly one", msgs)
			}
			if msgs[tt.field] != tt.want {
				t.Errorf("message for %s = %q, want %q", tt.field, msgs[tt.field], tt.want)
			}
		})
	}
}

func TestValidate_OptionalBlankPasses(t *testing.T) {
	s, _ := FromStep(contactStep())
	values := validValues()
	values["postcode"] = ""
	values["notes"] = ""

	if err := Validate(s, values); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_AggregatesInFieldOrder(t *testing.T) {
	s, _ := FromStep(contactStep())

	err := Validate(s, map[string]string{})
	var aggr *AggregateError
	if !errors.As(err, &aggr) {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if len(aggr.Errors) != 5 {
		t.Fatalf("Validate() = %d errors, want 5", len(aggr.Errors))
	}

	first, ok := aggr.Errors[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", aggr.Errors[0])
	}
	if first.Key != "firstName" {
		t.Errorf("first error Key = %q, want firstName", first.Key)
	}
}

func TestValidateFields(t *testing.T) {
	s, _ := FromStep(contactStep())
	values := map[string]string{"email": "nope"}

	if err := ValidateFields(s, values); err != nil {
		t.Errorf("ValidateFields() with no fields = %v, want nil", err)
	}

	err := ValidateFields(s, values, "email", "ghost")
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("ValidateFields() = %d errors, want 2", len(errs))
	}
	if msgs := Messages(err); msgs["ghost"] != "not defined in schema" {
		t.Errorf("unknown field message = %q", msgs["ghost"])
	}
}

func TestIsComplete(t *testing.T) {
	s, _ := FromStep(contactStep())

	if !IsComplete(s, validValues()) {
		t.Error("IsComplete() = false for valid values")
	}

	values := validValues()
	values["postcode"] = "!!"
	if !IsComplete(s, values) {
		t.Error("an invalid optional field should not block completion")
	}

	values = validValues()
	delete(values, "state")
	if IsComplete(s, values) {
		t.Error("IsComplete() = true with a missing required field")
	}
}

func TestCustomType(t *testing.T) {
	vin := Custom("vin", "", func(v string) error {
		if len(v) != 17 {
			return errors.New("Enter a valid VIN.")
		}
		return nil
	})
	s := Schema{{ID: "vin", Required: true, Type: vin}}

	if msgs := Messages(Validate(s, nil)); msgs["vin"] != "This field is required." {
		t.Errorf("missing message = %q", msgs["vin"])
	}
	if msgs := Messages(Validate(s, map[string]string{"vin": "short"})); msgs["vin"] != "Enter a valid VIN." {
		t.Errorf("invalid message = %q", msgs["vin"])
	}
	if err := Validate(s, map[string]string{"vin": "1HGCM82633A004352"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidationErrorString(t *testing.T) {
	err := &ValidationError{Key: "email", Reason: "Enter a valid email address.", Value: "x"}
	want := `field "email": Enter a valid email address. (got "x")`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
