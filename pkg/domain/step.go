package domain

// SelectionMode defines how many products a step accepts.
type SelectionMode string

const (
	// ModeSingle accepts at most one product; reclicking the selection clears it.
	ModeSingle SelectionMode = "single"
	// ModeMulti accepts any number of products.
	ModeMulti SelectionMode = "multi"
	// ModeForm collects free-text field values instead of products.
	ModeForm SelectionMode = "form"
	// ModeNone is an informational step with nothing to choose.
	ModeNone SelectionMode = "none"
)

// Valid reports whether m is one of the known modes.
func (m SelectionMode) Valid() bool {
	switch m {
	case ModeSingle, ModeMulti, ModeForm, ModeNone:
		return true
	}
	return false
}

// ValidatorKind selects the validation applied to a form field.
type ValidatorKind string

const (
	ValidatorNone     ValidatorKind = "none"
	ValidatorText     ValidatorKind = "text"
	ValidatorEmail    ValidatorKind = "email"
	ValidatorPhone    ValidatorKind = "phone"
	ValidatorState    ValidatorKind = "state"
	ValidatorPostcode ValidatorKind = "postcode"
)

// FieldDescriptor describes one input of a form step.
type FieldDescriptor struct {
	ID        string        `json:"id" yaml:"id"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
	Required  bool          `json:"required" yaml:"required"`
	Validator ValidatorKind `json:"validator,omitempty" yaml:"validator,omitempty"`
}

// StepDefinition is one authored stage of the wizard. The position in the
// authored slice is its order; steps are never reordered at runtime.
type StepDefinition struct {
	ID            string            `json:"id"`
	Title         string            `json:"title,omitempty"`
	Description   string            `json:"description,omitempty"`
	SelectionMode SelectionMode     `json:"selectionMode"`
	Required      bool              `json:"required"`
	Visibility    VisibilityRule    `json:"visibleWhen"`
	Fields        []FieldDescriptor `json:"fields,omitempty"`
}

// Clone returns a copy that shares no slices with s.
func (s StepDefinition) Clone() StepDefinition {
	out := s
	out.Visibility = s.Visibility.Clone()
	if s.Fields != nil {
		out.Fields = append([]FieldDescriptor(nil), s.Fields...)
	}
	return out
}

// Field returns the descriptor with the given id.
func (s StepDefinition) Field(id string) (FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// CloneSteps copies a list of step definitions.
func CloneSteps(steps []StepDefinition) []StepDefinition {
	out := make([]StepDefinition, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}
