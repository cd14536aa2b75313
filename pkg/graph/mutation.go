package graph

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
)

// AddNode inserts a node. The id must be valid and unused.
func (g *Graph) AddNode(n Node) error {
	if !domain.ValidNodeID(n.ID) {
		return fmt.Errorf("graph %q: invalid node id %q", g.Name, n.ID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("graph %q: duplicate node id %q", g.Name, n.ID)
	}
	if n.Capability == nil {
		return fmt.Errorf("graph %q: node %q has no capability", g.Name, n.ID)
	}
	node := n
	g.nodes[n.ID] = &node
	return nil
}

// RemoveNode deletes a node and its layout entry. Edges touching it are kept
// and reported as dangling by ValidateEdges.
func (g *Graph) RemoveNode(id domain.NodeID) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	delete(g.Layout, id)
	return true
}

// AddEdge connects source to target. A target accepts one source: any previous
// source for target is replaced.
func (g *Graph) AddEdge(source domain.SourcePin, target domain.TargetPin) {
	g.edges[target] = source
}

// RemoveEdge disconnects target.
func (g *Graph) RemoveEdge(target domain.TargetPin) bool {
	if _, ok := g.edges[target]; !ok {
		return false
	}
	delete(g.edges, target)
	return true
}

// RenameNode changes a node id and rewrites every edge endpoint and layout entry
// referring to it. It reports false and changes nothing when from is missing or
// to is invalid or taken.
func (g *Graph) RenameNode(from, to domain.NodeID) bool {
	n, ok := g.nodes[from]
	if !ok || !domain.ValidNodeID(to) {
		return false
	}
	if _, taken := g.nodes[to]; taken {
		return false
	}

	delete(g.nodes, from)
	n.ID = to
	g.nodes[to] = n

	if pos, ok := g.Layout[from]; ok {
		delete(g.Layout, from)
		g.Layout[to] = pos
	}

	rewritten := make(map[domain.TargetPin]domain.SourcePin, len(g.edges))
	for t, s := range g.edges {
		if t.Node == from && !t.IsBoundary() {
			t.Node = to
		}
		if s.Node == from && !s.IsBoundary() {
			s.Node = to
		}
		rewritten[t] = s
	}
	g.edges = rewritten
	return true
}

// AddInputData declares a graph data input with an optional default (def may be nil).
func (g *Graph) AddInputData(pin domain.PinID, typ domain.PinType, def domain.Value) error {
	if def != nil && def.Type() != typ {
		return fmt.Errorf("graph %q: default for input %q is %s, want %s", g.Name, pin, def.Type(), typ)
	}
	g.inputData.Set(pin, typ)
	if def != nil {
		g.defaults[pin] = def
	} else {
		delete(g.defaults, pin)
	}
	return nil
}

// SetDefault replaces the default of an existing graph data input.
func (g *Graph) SetDefault(pin domain.PinID, v domain.Value) error {
	typ, ok := g.inputData.Get(pin)
	if !ok {
		return fmt.Errorf("graph %q: unknown input %q", g.Name, pin)
	}
	if v.Type() != typ {
		return fmt.Errorf("graph %q: default for input %q is %s, want %s", g.Name, pin, v.Type(), typ)
	}
	g.defaults[pin] = v
	return nil
}

// RemoveInputData drops a graph data input and its default.
func (g *Graph) RemoveInputData(pin domain.PinID) {
	g.inputData.Delete(pin)
	delete(g.defaults, pin)
}

// AddInputTime declares a graph time input.
func (g *Graph) AddInputTime(pin domain.PinID, spec domain.TimeSpec) {
	g.inputTime.Set(pin, spec)
}

// RemoveInputTime drops a graph time input.
func (g *Graph) RemoveInputTime(pin domain.PinID) {
	g.inputTime.Delete(pin)
}

// AddOutputData declares a graph data output.
func (g *Graph) AddOutputData(pin domain.PinID, typ domain.PinType) {
	g.outputData.Set(pin, typ)
}

// RemoveOutputData drops a graph data output.
func (g *Graph) RemoveOutputData(pin domain.PinID) {
	g.outputData.Delete(pin)
}

// SetOutputTime declares the pose output of the graph.
func (g *Graph) SetOutputTime(spec domain.TimeSpec) {
	s := spec
	g.outputTime = &s
}

// ClearOutputTime removes the pose output of the graph.
func (g *Graph) ClearOutputTime() {
	g.outputTime = nil
}
