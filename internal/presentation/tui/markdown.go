package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/sinew/internal/dto"
)

// GraphMarkdown describes a graph as markdown tables.
func GraphMarkdown(g dto.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# graph `%s`\n\n", g.Name)

	var pins [][]string
	for _, p := range g.Inputs {
		pins = append(pins, []string{"input", p.ID, p.Type, defaultText(p.Default)})
	}
	for _, p := range g.TimeInputs {
		pins = append(pins, []string{"time input", p.ID, p.Space, ""})
	}
	for _, p := range g.Outputs {
		pins = append(pins, []string{"output", p.ID, p.Type, ""})
	}
	if g.Pose != nil {
		pins = append(pins, []string{"pose", g.Pose.ID, g.Pose.Space, ""})
	}
	if len(pins) > 0 {
		b.WriteString("## Pins\n\n")
		table(&b, []string{"Direction", "Name", "Type", "Default"}, pins)
	}

	if len(g.Nodes) > 0 {
		rows := make([][]string, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			rows = append(rows, []string{n.ID, n.Kind})
		}
		b.WriteString("## Nodes\n\n")
		table(&b, []string{"Node", "Kind"}, rows)
	}
	if len(g.Edges) > 0 {
		rows := make([][]string, 0, len(g.Edges))
		for _, e := range g.Edges {
			rows = append(rows, []string{code(e.Source), code(e.Target)})
		}
		b.WriteString("## Edges\n\n")
		table(&b, []string{"Source", "Target"}, rows)
	}
	return b.String()
}

// MachineMarkdown describes a state machine as markdown tables.
func MachineMarkdown(m dto.Machine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# machine `%s`\n\nStarts in `%s`.\n\n", m.Name, m.Start)

	rows := make([][]string, 0, len(m.States))
	for _, s := range m.States {
		graph := s.Graph
		if s.Kind == "transition" {
			graph = fmt.Sprintf("%s (%s → %s, %gs)", s.Graph, s.Source, s.Target, s.Duration)
		}
		rows = append(rows, []string{s.ID, s.Kind, graph})
	}
	b.WriteString("## States\n\n")
	table(&b, []string{"State", "Kind", "Graph"}, rows)

	rows = rows[:0]
	for _, t := range m.Transitions {
		event := t.Event
		if event == "" {
			event = "_end_"
		}
		rows = append(rows, []string{t.From, t.To, event})
	}
	if len(rows) > 0 {
		b.WriteString("## Transitions\n\n")
		table(&b, []string{"From", "To", "Event"}, rows)
	}
	return b.String()
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, r := range rows {
		b.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func code(s string) string { return "`" + s + "`" }

func defaultText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
