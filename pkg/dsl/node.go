package dsl

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    graph.Node
	edges   []domain.Edge
	pos     *graph.Position
	builder *Builder
}

// Kind records the registry kind the node was built from.
func (n *NodeBuilder) Kind(kind string) *NodeBuilder {
	n.node.Kind = kind
	return n
}

// Debug turns on per-pass logging for this node.
func (n *NodeBuilder) Debug() *NodeBuilder {
	n.node.Debug = true
	return n
}

// At sets the editor position.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.pos = &graph.Position{X: x, Y: y}
	return n
}

// In connects the node input pin to the source at address from, for example
// "clip.time" or "@in.data.speed". Time sources feed time inputs.
func (n *NodeBuilder) In(pin string, from string) *NodeBuilder {
	src, err := domain.ParseSourcePin(from)
	if err != nil {
		n.builder.errs = append(n.builder.errs, fmt.Errorf("node %q input %q: %w", n.node.ID, pin, err))
		return n
	}
	target := domain.NodeInputData(n.node.ID, domain.PinID(pin))
	if src.IsTime() {
		target = domain.NodeInputTime(n.node.ID, domain.PinID(pin))
	}
	n.edges = append(n.edges, domain.Edge{Source: src, Target: target})
	return n
}

// Build returns the underlying graph.Node.
func (n *NodeBuilder) Build() graph.Node {
	return n.node
}
