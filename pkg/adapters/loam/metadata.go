package loam

// ProductMetadata is the frontmatter of a product document. The markdown
// body becomes the product description.
//
// Numeric fields are untyped because strict repositories hand numbers over
// as json.Number; decodeProduct normalises them.
type ProductMetadata struct {
	ID     string `json:"id" mapstructure:"id"`
	StepID string `json:"step" mapstructure:"step"`
	Name   string `json:"name" mapstructure:"name"`
	Image  string `json:"image" mapstructure:"image"`
	Handle string `json:"handle" mapstructure:"handle"`

	// Order positions the product within its step. Ties sort by id.
	Order any `json:"order" mapstructure:"order"`

	Make  string `json:"make" mapstructure:"make"`
	Model string `json:"model" mapstructure:"model"`
	Years []any  `json:"years" mapstructure:"years"`

	Price  any `json:"price" mapstructure:"price"`
	Weight any `json:"weight" mapstructure:"weight"`
	Stock  any `json:"stock" mapstructure:"stock"`

	CompatibleWith []string          `json:"compatible_with" mapstructure:"compatible_with"`
	Variants       map[string]any    `json:"variants" mapstructure:"variants"`
}
