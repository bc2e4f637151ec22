package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/quoteflow/internal/presentation/graph"
	"github.com/aretw0/quoteflow/pkg/catalog"
	"github.com/aretw0/quoteflow/pkg/domain"
)

func requires(stepID, equals string) domain.VisibilityRule {
	return domain.VisibilityRule{
		Kind:         domain.RuleRequires,
		Requirements: []domain.Requirement{{StepID: stepID, Equals: equals}},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		def      *domain.Definition
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Step Shapes",
			def: &domain.Definition{
				AnchorStepID: "vehicle",
				Steps: []domain.StepDefinition{
					{ID: "vehicle", SelectionMode: domain.ModeSingle, Required: true},
					{ID: "extras", SelectionMode: domain.ModeMulti},
					{ID: "info", SelectionMode: domain.ModeNone},
					{ID: "contact", SelectionMode: domain.ModeForm},
				},
			},
			contains: []string{
				`vehicle(("vehicle *"))`,
				`extras["extras"]`,
				`info[["info"]]`,
				`contact[/"contact"/]`,
				"vehicle ==> extras",
				"info ==> contact",
			},
		},
		{
			name: "ID Sanitization",
			def: &domain.Definition{
				Steps: []domain.StepDefinition{
					{ID: "roof.racks"},
					{ID: "hyphen-ated", Visibility: requires("roof.racks", "")},
				},
			},
			contains: []string{
				`roof_racks["roof.racks"]`,
				`hyphen_ated["hyphen-ated"]`,
				"roof_racks --> hyphen_ated",
			},
		},
		{
			name: "Dependency Edges",
			def: &domain.Definition{
				Steps: []domain.StepDefinition{
					{ID: "canopy"},
					{ID: "drawers", Visibility: requires("canopy", `pro "xl"`)},
					{ID: "extras", Visibility: domain.VisibilityRule{
						Kind:         domain.RuleAnyOf,
						Requirements: []domain.Requirement{{StepID: "canopy"}, {StepID: "drawers", Equals: "twin"}},
					}},
				},
			},
			contains: []string{
				`canopy -- "pro 'xl'" --> drawers`,
				"canopy -.-> extras",
				`drawers -. "twin" .-> extras`,
			},
		},
		{
			name: "Malformed Rule",
			def: &domain.Definition{
				Steps: []domain.StepDefinition{
					{ID: "broken", Visibility: domain.VisibilityRule{Kind: domain.RuleMalformed, Reason: "unknown key"}},
				},
			},
			contains: []string{`broken["broken <br/> ⚠️ unknown key"]`},
		},
		{
			name: "Overlay",
			def: &domain.Definition{
				Steps: []domain.StepDefinition{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			},
			overlay: &graph.GraphOverlay{
				VisitedSteps: []string{"a", "a"},
				CurrentStep:  "b",
				HiddenSteps:  []string{"c"},
			},
			contains: []string{
				"classDef current",
				"class a visited;",
				"class b current;",
				"class c hidden;",
			},
		},
		{
			name:     "No Overlay",
			def:      &domain.Definition{Steps: []domain.StepDefinition{{ID: "a"}}},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.def, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class a visited;") > 1 {
				t.Errorf("visited steps are not deduplicated:\n%v", got)
			}
		})
	}
}

func TestGenerateMermaid_Catalog(t *testing.T) {
	def, err := catalog.Load("../../../pkg/catalog/testdata/quote.yaml")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	got := graph.GenerateMermaid(def, nil)
	for _, want := range []string{
		`vehicle(("vehicle *"))`,
		"vehicle --> canopy",
		`canopy -- "canopy-pro" --> drawers`,
		"drawers -.-> extras",
		`contact[/"contact *"/]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
		}
	}
}

func TestGenerateMermaid_Nil(t *testing.T) {
	if got := graph.GenerateMermaid(nil, nil); got != "graph TD\n" {
		t.Errorf("GenerateMermaid(nil) = %q", got)
	}
}
