package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// Builder manages the graph construction. Errors are collected and reported
// together by Build.
type Builder struct {
	g     *graph.Graph
	nodes []*NodeBuilder
	errs  []error

	prune  bool
	pruned []domain.Edge
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{g: graph.New(name)}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string, c graph.Capability) *NodeBuilder {
	for _, nb := range b.nodes {
		if string(nb.node.ID) == id {
			return nb
		}
	}
	nb := &NodeBuilder{
		node:    graph.Node{ID: domain.NodeID(id), Capability: c},
		builder: b,
	}
	b.nodes = append(b.nodes, nb)
	return nb
}

// Input declares a data input on the graph boundary. def may be nil.
func (b *Builder) Input(pin string, typ domain.PinType, def domain.Value) *Builder {
	if err := b.g.AddInputData(domain.PinID(pin), typ, def); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// TimeInput declares a time input on the graph boundary.
func (b *Builder) TimeInput(pin string, space domain.PoseSpace) *Builder {
	b.g.AddInputTime(domain.PinID(pin), domain.TimeSpec{Space: space})
	return b
}

// Output declares a data output fed by the source at address from.
func (b *Builder) Output(pin string, typ domain.PinType, from string) *Builder {
	src, err := domain.ParseSourcePin(from)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("output %q: %w", pin, err))
		return b
	}
	b.g.AddOutputData(domain.PinID(pin), typ)
	b.g.AddEdge(src, domain.GraphOutputData(domain.PinID(pin)))
	return b
}

// PoseOutput declares the pose output of the graph, fed by from.
func (b *Builder) PoseOutput(from string) *Builder {
	src, err := domain.ParseSourcePin(from)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("pose output: %w", err))
		return b
	}
	b.g.SetOutputTime(domain.TimeSpec{})
	b.g.AddEdge(src, domain.GraphOutputTime())
	return b
}

// PruneIllegal makes Build drop edges that fail validation instead of
// reporting them.
func (b *Builder) PruneIllegal() *Builder {
	b.prune = true
	return b
}

// Pruned returns the edges dropped by the last Build.
func (b *Builder) Pruned() []domain.Edge { return b.pruned }

// Build adds the nodes and their edges and returns the graph. Edges that fail
// validation are reported as errors unless PruneIllegal was set.
// Build should be called once.
func (b *Builder) Build() (*graph.Graph, error) {
	errs := append([]error(nil), b.errs...)
	for _, nb := range b.nodes {
		if err := b.g.AddNode(nb.node); err != nil {
			errs = append(errs, err)
			continue
		}
		if nb.pos != nil {
			b.g.Layout[nb.node.ID] = *nb.pos
		}
	}
	for _, nb := range b.nodes {
		for _, e := range nb.edges {
			b.g.AddEdge(e.Source, e.Target)
		}
	}
	if b.prune {
		b.pruned = b.g.Prune()
	}
	if illegal := b.g.ValidateEdges(); len(illegal) > 0 {
		parts := make([]string, len(illegal))
		for i, e := range illegal {
			parts[i] = e.String()
		}
		errs = append(errs, fmt.Errorf("%w: %s", graph.ErrIllegalEdge, strings.Join(parts, ", ")))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("build graph %q: %w", b.g.Name, err)
	}
	return b.g, nil
}
