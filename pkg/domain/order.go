package domain

// LineItem identifies one recorded selection.
type LineItem struct {
	StepID    string `json:"stepId"`
	ProductID string `json:"productId"`
}

// Totals is a fold over the current selections, recomputed on every call.
type Totals struct {
	TotalPrice  float64    `json:"totalPrice"`
	TotalWeight float64    `json:"totalWeight"`
	LineItems   []LineItem `json:"lineItems"`
}

// ChannelLineItem is an order line resolved to a channel's variant identifier.
type ChannelLineItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Channel is a fulfilment context that resolves products to order lines.
type Channel struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ChannelRoute selects Channel when the form field StepID/FieldID equals
// Equals (case-insensitive).
type ChannelRoute struct {
	StepID  string `json:"stepId" yaml:"stepId"`
	FieldID string `json:"fieldId" yaml:"fieldId"`
	Equals  string `json:"equals" yaml:"equals"`
	Channel string `json:"channel" yaml:"channel"`
}

// Customer is the contact record submitted with an order. Form fields that
// are not one of the named ones travel in Extra.
type Customer struct {
	FirstName string         `json:"firstName" mapstructure:"firstName"`
	LastName  string         `json:"lastName" mapstructure:"lastName"`
	Email     string         `json:"email" mapstructure:"email"`
	Phone     string         `json:"phone" mapstructure:"phone"`
	State     string         `json:"state" mapstructure:"state"`
	Postcode  string         `json:"postcode" mapstructure:"postcode"`
	Notes     string         `json:"notes" mapstructure:"notes"`
	Extra     map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// VehicleSelection is the make/model/year picked for the anchor step.
type VehicleSelection struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  string `json:"year"`
}

// OrderMeta carries context that is not an order line.
type OrderMeta struct {
	AnchorID   string              `json:"anchorId,omitempty"`
	Vehicle    VehicleSelection    `json:"vehicle"`
	Selections map[string][]string `json:"selections"`
}

// Order is the finalised payload handed to the submission channel.
type Order struct {
	Channel  string            `json:"channel"`
	Customer Customer          `json:"customer"`
	Items    []ChannelLineItem `json:"items"`
	Meta     OrderMeta         `json:"meta"`
}

// Confirmation is returned by the submission channel.
type Confirmation struct {
	Reference string `json:"reference,omitempty"`
	OrderURL  string `json:"orderUrl,omitempty"`
}

// Definition is the authored wizard: steps, catalog, and channel setup.
type Definition struct {
	Steps          []StepDefinition `json:"steps"`
	Products       []Product        `json:"products"`
	Channels       []Channel        `json:"channels,omitempty"`
	DefaultChannel string           `json:"defaultChannel,omitempty"`
	Routes         []ChannelRoute   `json:"routes,omitempty"`
	AnchorStepID   string           `json:"anchorStepId,omitempty"`
}

// Step returns the authored step with the given id.
func (d *Definition) Step(id string) (StepDefinition, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepDefinition{}, false
}

// ChannelLabel returns the display label of a channel, falling back to its id.
func (d *Definition) ChannelLabel(id string) string {
	for _, c := range d.Channels {
		if c.ID == id && c.Label != "" {
			return c.Label
		}
	}
	return id
}

// NormaliseChannel maps unknown channel ids to the default channel.
func (d *Definition) NormaliseChannel(id string) string {
	for _, c := range d.Channels {
		if c.ID == id {
			return id
		}
	}
	if d.DefaultChannel != "" {
		return d.DefaultChannel
	}
	if len(d.Channels) > 0 {
		return d.Channels[0].ID
	}
	return id
}
