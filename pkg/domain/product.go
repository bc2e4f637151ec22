package domain

// Product is a catalog entry. Identity is the ID; every other field may be
// refreshed by a later enrichment through Merge.
type Product struct {
	ID          string `json:"id" yaml:"id"`
	StepID      string `json:"stepId" yaml:"stepId"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	Handle      string `json:"handle,omitempty" yaml:"handle,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Vehicle attributes, only meaningful for products of the anchor step.
	Make  string   `json:"make,omitempty" yaml:"make,omitempty"`
	Model string   `json:"model,omitempty" yaml:"model,omitempty"`
	Years []string `json:"years,omitempty" yaml:"years,omitempty"`

	// Price and Weight are optional; nil contributes zero to totals.
	Price  *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Stock  *int     `json:"stock,omitempty" yaml:"stock,omitempty"`

	// CompatibleWith lists anchor product ids. Empty means compatible with everything.
	CompatibleWith []string `json:"compatibleWith,omitempty" yaml:"compatibleWith,omitempty"`

	// Variants maps a channel id to the opaque external variant identifier.
	Variants map[string]string `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// PriceOrZero returns the price, treating a missing value as zero.
func (p Product) PriceOrZero() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// WeightOrZero returns the weight in grams, treating a missing value as zero.
func (p Product) WeightOrZero() float64 {
	if p.Weight == nil {
		return 0
	}
	return *p.Weight
}

// VariantFor returns the variant identifier for a channel, if any.
func (p Product) VariantFor(channel string) (string, bool) {
	id, ok := p.Variants[channel]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// IsCompatibleWith reports whether the product may be combined with the given
// anchor product id. An empty anchor or an empty compatibility set is permissive.
func (p Product) IsCompatibleWith(anchorID string) bool {
	if anchorID == "" || len(p.CompatibleWith) == 0 {
		return true
	}
	for _, id := range p.CompatibleWith {
		if id == anchorID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share slices or maps with the catalog.
func (p Product) Clone() Product {
	out := p
	if p.Price != nil {
		v := *p.Price
		out.Price = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		out.Weight = &v
	}
	if p.Stock != nil {
		v := *p.Stock
		out.Stock = &v
	}
	if p.Years != nil {
		out.Years = append([]string(nil), p.Years...)
	}
	if p.CompatibleWith != nil {
		out.CompatibleWith = append([]string(nil), p.CompatibleWith...)
	}
	if p.Variants != nil {
		out.Variants = make(map[string]string, len(p.Variants))
		for k, v := range p.Variants {
			out.Variants[k] = v
		}
	}
	return out
}

// Merge applies the populated fields of update on top of p. The ID never changes.
func (p Product) Merge(update Product) Product {
	out := p.Clone()
	u := update.Clone()

	mergeString(&out.StepID, u.StepID)
	mergeString(&out.Name, u.Name)
	mergeString(&out.Image, u.Image)
	mergeString(&out.Handle, u.Handle)
	mergeString(&out.Description, u.Description)
	mergeString(&out.Make, u.Make)
	mergeString(&out.Model, u.Model)

	if u.Years != nil {
		out.Years = u.Years
	}
	if u.Price != nil {
		out.Price = u.Price
	}
	if u.Weight != nil {
		out.Weight = u.Weight
	}
	if u.Stock != nil {
		out.Stock = u.Stock
	}
	if u.CompatibleWith != nil {
		out.CompatibleWith = u.CompatibleWith
	}
	if len(u.Variants) > 0 {
		if out.Variants == nil {
			out.Variants = make(map[string]string, len(u.Variants))
		}
		for k, v := range u.Variants {
			out.Variants[k] = v
		}
	}
	return out
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Float is a small helper for building optional numeric fields.
func Float(v float64) *float64 { return &v }

// ProductGroups partitions the products of a step by compatibility with the anchor.
type ProductGroups struct {
	Compatible   []Product `json:"compatible"`
	Incompatible []Product `json:"incompatible"`
}

// Enrichment carries refreshed product data for one variant.
type Enrichment struct {
	Price  *float64 `json:"price,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Image  string   `json:"image,omitempty"`
	Handle string   `json:"handle,omitempty"`
	Stock  *int     `json:"stock,omitempty"`
}

// Apply converts the enrichment into a merge update for product id.
func (e Enrichment) Apply(id string) Product {
	return Product{
		ID:     id,
		Price:  e.Price,
		Weight: e.Weight,
		Image:  e.Image,
		Handle: e.Handle,
		Stock:  e.Stock,
	}
}
