package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/quoteflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a definition file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor infers the format from a file extension. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

type rawField struct {
	ID        string `yaml:"id" json:"id"`
	Label     string `yaml:"label" json:"label"`
	Required  bool   `yaml:"required" json:"required"`
	Validator string `yaml:"validator" json:"validator"`
}

type rawStep struct {
	ID            string     `yaml:"id" json:"id"`
	Title         string     `yaml:"title" json:"title"`
	Description   string     `yaml:"description" json:"description"`
	SelectionMode string     `yaml:"selectionMode" json:"selectionMode"`
	Required      bool       `yaml:"required" json:"required"`
	VisibleWhen   any        `yaml:"visibleWhen" json:"visibleWhen"`
	Fields        []rawField `yaml:"fields" json:"fields"`
}

// File is the on-disk shape of a wizard definition.
type File struct {
	AnchorStepID   string                `yaml:"anchorStepId" json:"anchorStepId"`
	DefaultChannel string                `yaml:"defaultChannel" json:"defaultChannel"`
	Channels       []domain.Channel      `yaml:"channels" json:"channels"`
	Routes         []domain.ChannelRoute `yaml:"routes" json:"routes"`
	Steps          []rawStep             `yaml:"steps" json:"steps"`
	Products       []domain.Product      `yaml:"products" json:"products"`
}

// Load reads a definition file (YAML or JSON).
func Load(path string) (*domain.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// Parse decodes a definition. Visibility rules that cannot be understood are
// kept as malformed rules; Validate reports them.
func Parse(data []byte, format Format) (*domain.Definition, error) {
	var file File
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse definition json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse definition yaml: %w", err)
		}
	}
	return file.Definition(), nil
}

// Definition converts the file into domain types.
func (f File) Definition() *domain.Definition {
	def := &domain.Definition{
		AnchorStepID:   f.AnchorStepID,
		DefaultChannel: f.DefaultChannel,
		Channels:       f.Channels,
		Routes:         f.Routes,
		Steps:          make([]domain.StepDefinition, 0, len(f.Steps)),
		Products:       make([]domain.Product, 0, len(f.Products)),
	}

	for _, rs := range f.Steps {
		step := domain.StepDefinition{
			ID:            rs.ID,
			Title:         rs.Title,
			Description:   rs.Description,
			SelectionMode: domain.SelectionMode(rs.SelectionMode),
			Required:      rs.Required,
			Visibility:    DecodeRule(rs.VisibleWhen),
		}
		if step.SelectionMode == "" {
			step.SelectionMode = domain.ModeSingle
		}
		for _, rf := range rs.Fields {
			step.Fields = append(step.Fields, domain.FieldDescriptor{
				ID:        rf.ID,
				Label:     rf.Label,
				Required:  rf.Required,
				Validator: domain.ValidatorKind(rf.Validator),
			})
		}
		def.Steps = append(def.Steps, step)
	}

	for _, p := range f.Products {
		def.Products = append(def.Products, p.Clone())
	}
	return def
}
