package graph

import (
	"sort"

	"github.com/aretw0/sinew/pkg/domain"
)

// Graph is a named set of nodes plus an edge map from each target pin to its
// single source pin. Graphs are mutable during authoring and treated as
// immutable while an Instance evaluates them.
type Graph struct {
	Name string

	nodes    map[domain.NodeID]*Node
	edges    map[domain.TargetPin]domain.SourcePin
	defaults map[domain.PinID]domain.Value

	inputData  *DataSpec
	inputTime  *TimeSpecs
	outputData *DataSpec
	outputTime *domain.TimeSpec

	// Layout is editor-only canvas metadata keyed by node id.
	Layout map[domain.NodeID]Position
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name:       name,
		nodes:      make(map[domain.NodeID]*Node),
		edges:      make(map[domain.TargetPin]domain.SourcePin),
		defaults:   make(map[domain.PinID]domain.Value),
		inputData:  NewDataSpec(),
		inputTime:  NewTimeSpecs(),
		outputData: NewDataSpec(),
		Layout:     make(map[domain.NodeID]Position),
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id domain.NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SourceOf returns the source connected to target.
func (g *Graph) SourceOf(target domain.TargetPin) (domain.SourcePin, bool) {
	s, ok := g.edges[target]
	return s, ok
}

// Edges returns every edge in canonical order (by target address).
// Validation uses this order to decide which consumer of a shared time source is legal.
func (g *Graph) Edges() []domain.Edge {
	out := make([]domain.Edge, 0, len(g.edges))
	for t, s := range g.edges {
		out = append(out, domain.Edge{Source: s, Target: t})
	}
	sortEdges(out)
	return out
}

// Consumers returns the targets fed by source, in canonical order.
func (g *Graph) Consumers(source domain.SourcePin) []domain.TargetPin {
	var out []domain.TargetPin
	for _, e := range g.Edges() {
		if e.Source == source {
			out = append(out, e.Target)
		}
	}
	return out
}

// InputData returns the declared data inputs of the graph.
func (g *Graph) InputData() *DataSpec { return g.inputData }

// InputTime returns the declared time inputs of the graph.
func (g *Graph) InputTime() *TimeSpecs { return g.inputTime }

// OutputData returns the declared data outputs of the graph.
func (g *Graph) OutputData() *DataSpec { return g.outputData }

// OutputTime returns the declared pose output of the graph, if any.
func (g *Graph) OutputTime() (domain.TimeSpec, bool) {
	if g.outputTime == nil {
		return domain.TimeSpec{}, false
	}
	return *g.outputTime, true
}

// Default returns the default value of a graph data input.
func (g *Graph) Default(pin domain.PinID) (domain.Value, bool) {
	v, ok := g.defaults[pin]
	return v, ok
}

// BoundarySpec exposes the graph I/O as the pin declaration of a node owning it.
func (g *Graph) BoundarySpec() NodeSpec {
	spec := NodeSpec{
		DataInputs:  NewDataSpec(DataPins(g.inputData)...),
		DataOutputs: NewDataSpec(DataPins(g.outputData)...),
		TimeInputs:  NewTimeSpecs(TimePins(g.inputTime)...),
	}
	if ts, ok := g.OutputTime(); ok {
		spec.TimeOutput = &ts
	}
	return spec
}

func sortEdges(edges []domain.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Target.String() < edges[j].Target.String()
	})
}
