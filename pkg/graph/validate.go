package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
)

var (
	// ErrIllegalEdge is returned by CanAddEdge when the edge cannot exist in this graph.
	ErrIllegalEdge = errors.New("illegal edge")
	// ErrEdgeConflict is returned by CanAddEdge when the target is already connected.
	ErrEdgeConflict = errors.New("target already connected")
)

// EdgeError reports an edge that cannot be added. There is no remedy short of
// changing the graph declaration.
type EdgeError struct {
	Edge   domain.Edge
	Reason string
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("%v %s: %s", ErrIllegalEdge, e.Edge, e.Reason)
}

func (e *EdgeError) Unwrap() error { return ErrIllegalEdge }

// ConflictError reports that the only obstacle is an existing edge on the same
// target. Removing Existing makes the edge addable.
type ConflictError struct {
	Edge     domain.Edge
	Existing domain.Edge
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s conflicts with %s", ErrEdgeConflict, e.Edge, e.Existing)
}

func (e *ConflictError) Unwrap() error { return ErrEdgeConflict }

// pinSpec is the declared shape of one edge endpoint.
type pinSpec struct {
	time bool
	data domain.PinType
	ts   domain.TimeSpec
}

func (a pinSpec) compatible(b pinSpec) bool {
	if a.time != b.time {
		return false
	}
	if a.time {
		return a.ts.Compatible(b.ts)
	}
	return a.data == b.data
}

func (g *Graph) sourceSpec(s domain.SourcePin) (pinSpec, bool) {
	switch s.Kind {
	case domain.SourceGraphData:
		t, ok := lookupData(g.inputData, s.Pin)
		return pinSpec{data: t}, ok
	case domain.SourceGraphTime:
		ts, ok := lookupTime(g.inputTime, s.Pin)
		return pinSpec{time: true, ts: ts}, ok
	case domain.SourceNodeData:
		n, ok := g.nodes[s.Node]
		if !ok {
			return pinSpec{}, false
		}
		t, ok := lookupData(n.Capability.Spec().DataOutputs, s.Pin)
		return pinSpec{data: t}, ok
	case domain.SourceNodeTime:
		n, ok := g.nodes[s.Node]
		if !ok {
			return pinSpec{}, false
		}
		out := n.Capability.Spec().TimeOutput
		if out == nil {
			return pinSpec{}, false
		}
		return pinSpec{time: true, ts: *out}, true
	}
	return pinSpec{}, false
}

func (g *Graph) targetSpec(t domain.TargetPin) (pinSpec, bool) {
	switch t.Kind {
	case domain.TargetGraphData:
		typ, ok := lookupData(g.outputData, t.Pin)
		return pinSpec{data: typ}, ok
	case domain.TargetGraphTime:
		ts, ok := g.OutputTime()
		return pinSpec{time: true, ts: ts}, ok
	case domain.TargetNodeData:
		n, ok := g.nodes[t.Node]
		if !ok {
			return pinSpec{}, false
		}
		typ, ok := lookupData(n.Capability.Spec().DataInputs, t.Pin)
		return pinSpec{data: typ}, ok
	case domain.TargetNodeTime:
		n, ok := g.nodes[t.Node]
		if !ok {
			return pinSpec{}, false
		}
		ts, ok := lookupTime(n.Capability.Spec().TimeInputs, t.Pin)
		return pinSpec{time: true, ts: ts}, ok
	}
	return pinSpec{}, false
}

// checkEndpoints returns a non-empty reason when e is dangling or mistyped.
func (g *Graph) checkEndpoints(e domain.Edge) (dangling, mismatch string) {
	src, srcOK := g.sourceSpec(e.Source)
	dst, dstOK := g.targetSpec(e.Target)
	switch {
	case !srcOK:
		return fmt.Sprintf("source %s does not exist", e.Source), ""
	case !dstOK:
		return fmt.Sprintf("target %s does not exist", e.Target), ""
	case !src.compatible(dst):
		return "", fmt.Sprintf("source %s is not compatible with target %s", e.Source, e.Target)
	}
	return "", ""
}

// singleConsumer reports whether s may feed one target only: time sources and
// data outputs carrying a pose.
func (g *Graph) singleConsumer(s domain.SourcePin) bool {
	if s.IsTime() {
		return true
	}
	spec, ok := g.sourceSpec(s)
	return ok && spec.data == domain.TypePose
}

// ValidateEdges returns the illegal edges of the graph in canonical order.
// An edge is illegal when it is the second or later consumer of a time or pose source,
// when its endpoint specs do not match, or when one of its endpoints no longer
// exists. An empty result means the graph is valid.
func (g *Graph) ValidateEdges() []domain.Edge {
	edges := g.Edges()
	illegal := make(map[domain.TargetPin]bool)

	consumed := make(map[domain.SourcePin]bool)
	for _, e := range edges {
		if !g.singleConsumer(e.Source) {
			continue
		}
		if consumed[e.Source] {
			illegal[e.Target] = true
			continue
		}
		consumed[e.Source] = true
	}

	for _, e := range edges {
		if dangling, mismatch := g.checkEndpoints(e); dangling != "" || mismatch != "" {
			illegal[e.Target] = true
		}
	}

	var out []domain.Edge
	for _, e := range edges {
		if illegal[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// Prune removes illegal edges until ValidateEdges is empty and returns what it removed.
func (g *Graph) Prune() []domain.Edge {
	var removed []domain.Edge
	for {
		illegal := g.ValidateEdges()
		if len(illegal) == 0 {
			return removed
		}
		for _, e := range illegal {
			g.RemoveEdge(e.Target)
		}
		removed = append(removed, illegal...)
	}
}

// CanAddEdge reports whether AddEdge(source, target) would keep the graph valid.
// It returns nil, an *EdgeError, or a *ConflictError naming the edge that
// currently feeds target.
func (g *Graph) CanAddEdge(source domain.SourcePin, target domain.TargetPin) error {
	e := domain.Edge{Source: source, Target: target}
	if dangling, mismatch := g.checkEndpoints(e); dangling != "" {
		return &EdgeError{Edge: e, Reason: dangling}
	} else if mismatch != "" {
		return &EdgeError{Edge: e, Reason: mismatch}
	}
	if g.singleConsumer(source) {
		for _, other := range g.Consumers(source) {
			if other != target {
				return &EdgeError{Edge: e, Reason: fmt.Sprintf("pose source already consumed by %s", other)}
			}
		}
	}
	if existing, ok := g.edges[target]; ok {
		return &ConflictError{Edge: e, Existing: domain.Edge{Source: existing, Target: target}}
	}
	return nil
}
