package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
)

// Overlay contains runtime data to highlight on a diagram: nodes or states
// already visited and the one currently active.
type Overlay struct {
	Visited []string
	Current string
}

const (
	inputsID  = "graph_in"
	outputsID = "graph_out"
)

// GraphMermaid produces a Mermaid flowchart of a graph.
// It applies semantic styling:
// - Graph inputs: [/Parallelogram/], graph outputs: [\Parallelogram\]
// - State machine: {{Hexagon}}
// - Node producing a pose: ([Stadium])
// - Default: [Rectangle]
// Pose edges are drawn thick, data edges thin. Each edge is labelled with the
// pins it connects.
func GraphMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	if len(graph.DataPins(g.InputData())) > 0 || len(graph.TimePins(g.InputTime())) > 0 {
		fmt.Fprintf(&sb, "    %s[/\"@in\"/]\n", inputsID)
	}
	if _, ok := g.OutputTime(); ok || len(graph.DataPins(g.OutputData())) > 0 {
		fmt.Fprintf(&sb, "    %s[\\\"@out\"\\]\n", outputsID)
	}

	for _, n := range g.Nodes() {
		opener, closer := "[", "]"
		switch {
		case n.Kind == fsm.KindMachine:
			opener, closer = "{{", "}}"
		case n.Capability != nil && n.Capability.Spec().TimeOutput != nil:
			opener, closer = "([", "])"
		}
		label := string(n.ID)
		if n.Kind != "" {
			label += " <br/> " + n.Kind
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(n.ID)), opener, label, closer)
	}

	for _, e := range g.Edges() {
		from, to := sourceID(e.Source), targetID(e.Target)
		label := edgeLabel(e)
		arrow := "-->"
		if e.Target.IsTime() {
			arrow = "==>"
		}
		if label != "" {
			// Escape double quotes in labels for Mermaid
			label = strings.ReplaceAll(label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.Target.IsTime() {
				arrow = fmt.Sprintf("== \"%s\" ==>", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	writeOverlay(&sb, overlay, "class %s %s;\n")
	return sb.String()
}

// MachineMermaid produces a Mermaid state diagram of a state machine.
// Transition states are labelled with their endpoints and blend duration.
// Their end edges carry no event.
func MachineMermaid(m *fsm.Machine, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    [*] --> %s\n", sanitizeMermaidID(string(m.Start)))

	for _, s := range m.States {
		id := sanitizeMermaidID(string(s.ID))
		if s.Kind != fsm.KindTransition {
			fmt.Fprintf(&sb, "    state \"%s\" as %s\n", s.ID, id)
			continue
		}
		label := fmt.Sprintf("%s (%s → %s)", s.ID, s.Source, s.Target)
		if s.Duration > 0 {
			label += fmt.Sprintf(" ⏱️ %gs", s.Duration)
		}
		fmt.Fprintf(&sb, "    state \"%s\" as %s\n", label, id)
	}

	for _, t := range m.Transitions {
		from, to := sanitizeMermaidID(string(t.From)), sanitizeMermaidID(string(t.To))
		if t.Event == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s : %s\n", from, to, strings.ReplaceAll(t.Event, ":", "_"))
	}

	writeOverlay(&sb, overlay, "class %s %s\n")
	return sb.String()
}

func writeOverlay(sb *strings.Builder, overlay *Overlay, classLine string) {
	if overlay == nil {
		return
	}
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000\n")

	seen := make(map[string]bool)
	for _, id := range overlay.Visited {
		safeID := sanitizeMermaidID(id)
		if !seen[safeID] && safeID != "" {
			seen[safeID] = true
			sb.WriteString("    " + fmt.Sprintf(classLine, safeID, "visited"))
		}
	}
	if overlay.Current != "" {
		sb.WriteString("    " + fmt.Sprintf(classLine, sanitizeMermaidID(overlay.Current), "current"))
	}
}

func sourceID(s domain.SourcePin) string {
	if s.Kind == domain.SourceGraphData || s.Kind == domain.SourceGraphTime {
		return inputsID
	}
	return sanitizeMermaidID(string(s.Node))
}

func targetID(t domain.TargetPin) string {
	if t.IsBoundary() {
		return outputsID
	}
	return sanitizeMermaidID(string(t.Node))
}

// edgeLabel names the pins on both ends, "value → factor", dropping the
// unnamed pose output of a node and the pose output of the graph.
func edgeLabel(e domain.Edge) string {
	var parts []string
	if e.Source.Pin != "" {
		parts = append(parts, string(e.Source.Pin))
	}
	if e.Target.Pin != "" {
		parts = append(parts, string(e.Target.Pin))
	}
	return strings.Join(parts, " → ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
