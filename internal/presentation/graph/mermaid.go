package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// GraphOverlay contains session state to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
	HiddenSteps  []string
}

// GenerateMermaid produces a Mermaid flowchart of the step order and the
// visibility dependencies of a definition.
// Shapes follow the selection mode:
// - Anchor step: ((Circle))
// - Form: [/Parallelogram/]
// - Informational: [[Subroutine]]
// - Default: [Rectangle]
// Solid edges are requires/allOf dependencies, dotted ones anyOf.
// Thick edges give the authored order.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil {
		return sb.String()
	}

	for i, step := range def.Steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case step.ID == def.AnchorStepID:
			opener, closer = "((", "))"
		case step.SelectionMode == domain.ModeForm:
			opener, closer = "[/", "/]"
		case step.SelectionMode == domain.ModeNone:
			opener, closer = "[[", "]]"
		}

		label := step.ID
		if step.Required {
			label += " *"
		}
		if step.Visibility.Kind == domain.RuleMalformed {
			label += " <br/> ⚠️ " + escapeLabel(step.Visibility.Reason)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		if i > 0 {
			sb.WriteString(fmt.Sprintf("    %s ==> %s\n", sanitizeMermaidID(def.Steps[i-1].ID), safeID))
		}

		for _, req := range step.Visibility.Requirements {
			if req.StepID == "" {
				continue
			}
			from := sanitizeMermaidID(req.StepID)
			dotted := step.Visibility.Kind == domain.RuleAnyOf

			arrow := "-->"
			if dotted {
				arrow = "-.->"
			}
			if req.Equals != "" {
				cond := escapeLabel(req.Equals)
				arrow = fmt.Sprintf("-- \"%s\" -->", cond)
				if dotted {
					arrow = fmt.Sprintf("-. \"%s\" .->", cond)
				}
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, safeID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#757575;\n")

		writeClass(&sb, overlay.HiddenSteps, "hidden")
		writeClass(&sb, overlay.VisitedSteps, "visited")
		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
