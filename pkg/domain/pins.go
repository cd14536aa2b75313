package domain

import (
	"fmt"
	"strings"
)

// NodeID identifies a node inside one graph.
type NodeID string

// PinID identifies a pin inside one node or on the graph boundary.
type PinID string

// StateID identifies a state inside one state machine.
type StateID string

// TransitionID identifies a transition inside one state machine.
type TransitionID string

// Text markers used by the pin address syntax.
const (
	boundaryIn  = "@in"
	boundaryOut = "@out"
	segData     = "data"
	segTime     = "time"
)

// SourceKind tags the variant held by a SourcePin.
type SourceKind uint8

const (
	SourceGraphData SourceKind = iota + 1
	SourceGraphTime
	SourceNodeData
	SourceNodeTime
)

// SourcePin is the producing end of an edge.
// It is comparable and used directly as a cache and edge-map key.
type SourcePin struct {
	Kind SourceKind
	Node NodeID
	Pin  PinID
}

// GraphInputData addresses a data input declared on the graph boundary.
func GraphInputData(pin PinID) SourcePin {
	return SourcePin{Kind: SourceGraphData, Pin: pin}
}

// GraphInputTime addresses a time (pose) input declared on the graph boundary.
func GraphInputTime(pin PinID) SourcePin {
	return SourcePin{Kind: SourceGraphTime, Pin: pin}
}

// NodeOutputData addresses a data output of a node.
func NodeOutputData(node NodeID, pin PinID) SourcePin {
	return SourcePin{Kind: SourceNodeData, Node: node, Pin: pin}
}

// NodeOutputTime addresses the single time (pose) output of a node.
func NodeOutputTime(node NodeID) SourcePin {
	return SourcePin{Kind: SourceNodeTime, Node: node}
}

// IsTime reports whether the source carries a pose stream.
func (s SourcePin) IsTime() bool {
	return s.Kind == SourceGraphTime || s.Kind == SourceNodeTime
}

// IsBoundary reports whether the source is a graph input.
func (s SourcePin) IsBoundary() bool {
	return s.Kind == SourceGraphData || s.Kind == SourceGraphTime
}

func (s SourcePin) String() string {
	switch s.Kind {
	case SourceGraphData:
		return boundaryIn + "." + segData + "." + string(s.Pin)
	case SourceGraphTime:
		return boundaryIn + "." + segTime + "." + string(s.Pin)
	case SourceNodeData:
		return string(s.Node) + "." + segData + "." + string(s.Pin)
	case SourceNodeTime:
		return string(s.Node) + "." + segTime
	default:
		return "<invalid source>"
	}
}

// TargetKind tags the variant held by a TargetPin.
type TargetKind uint8

const (
	TargetGraphData TargetKind = iota + 1
	TargetGraphTime
	TargetNodeData
	TargetNodeTime
)

// TargetPin is the consuming end of an edge.
type TargetPin struct {
	Kind TargetKind
	Node NodeID
	Pin  PinID
}

// GraphOutputData addresses a data output declared on the graph boundary.
func GraphOutputData(pin PinID) TargetPin {
	return TargetPin{Kind: TargetGraphData, Pin: pin}
}

// GraphOutputTime addresses the pose output of the graph.
func GraphOutputTime() TargetPin {
	return TargetPin{Kind: TargetGraphTime}
}

// NodeInputData addresses a data input of a node.
func NodeInputData(node NodeID, pin PinID) TargetPin {
	return TargetPin{Kind: TargetNodeData, Node: node, Pin: pin}
}

// NodeInputTime addresses a time (pose) input of a node.
func NodeInputTime(node NodeID, pin PinID) TargetPin {
	return TargetPin{Kind: TargetNodeTime, Node: node, Pin: pin}
}

// IsTime reports whether the target consumes a pose stream.
func (t TargetPin) IsTime() bool {
	return t.Kind == TargetGraphTime || t.Kind == TargetNodeTime
}

// IsBoundary reports whether the target is a graph output.
func (t TargetPin) IsBoundary() bool {
	return t.Kind == TargetGraphData || t.Kind == TargetGraphTime
}

func (t TargetPin) String() string {
	switch t.Kind {
	case TargetGraphData:
		return boundaryOut + "." + segData + "." + string(t.Pin)
	case TargetGraphTime:
		return boundaryOut + "." + segTime
	case TargetNodeData:
		return string(t.Node) + "." + segData + "." + string(t.Pin)
	case TargetNodeTime:
		return string(t.Node) + "." + segTime + "." + string(t.Pin)
	default:
		return "<invalid target>"
	}
}

// Edge connects a source pin to a target pin.
type Edge struct {
	Source SourcePin
	Target TargetPin
}

func (e Edge) String() string {
	return e.Source.String() + " -> " + e.Target.String()
}

// ParseSourcePin parses the text form produced by SourcePin.String.
func ParseSourcePin(s string) (SourcePin, error) {
	owner, kind, pin, err := splitAddress(s)
	if err != nil {
		return SourcePin{}, err
	}
	switch {
	case owner == boundaryIn && kind == segData && pin != "":
		return GraphInputData(PinID(pin)), nil
	case owner == boundaryIn && kind == segTime && pin != "":
		return GraphInputTime(PinID(pin)), nil
	case owner == boundaryOut:
		return SourcePin{}, fmt.Errorf("invalid source pin %q: graph outputs cannot produce values", s)
	case kind == segData && pin != "":
		return NodeOutputData(NodeID(owner), PinID(pin)), nil
	case kind == segTime && pin == "":
		return NodeOutputTime(NodeID(owner)), nil
	}
	return SourcePin{}, fmt.Errorf("invalid source pin %q", s)
}

// ParseTargetPin parses the text form produced by TargetPin.String.
func ParseTargetPin(s string) (TargetPin, error) {
	owner, kind, pin, err := splitAddress(s)
	if err != nil {
		return TargetPin{}, err
	}
	switch {
	case owner == boundaryOut && kind == segData && pin != "":
		return GraphOutputData(PinID(pin)), nil
	case owner == boundaryOut && kind == segTime && pin == "":
		return GraphOutputTime(), nil
	case owner == boundaryIn:
		return TargetPin{}, fmt.Errorf("invalid target pin %q: graph inputs cannot consume values", s)
	case kind == segData && pin != "":
		return NodeInputData(NodeID(owner), PinID(pin)), nil
	case kind == segTime && pin != "":
		return NodeInputTime(NodeID(owner), PinID(pin)), nil
	}
	return TargetPin{}, fmt.Errorf("invalid target pin %q", s)
}

// splitAddress splits "owner.kind[.pin]". The pin part may itself contain dots.
func splitAddress(s string) (owner, kind, pin string, err error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 2 || parts[0] == "" {
		return "", "", "", fmt.Errorf("invalid pin address %q: expected owner.kind[.pin]", s)
	}
	owner, kind = parts[0], parts[1]
	if kind != segData && kind != segTime {
		return "", "", "", fmt.Errorf("invalid pin address %q: kind must be %q or %q", s, segData, segTime)
	}
	if len(parts) == 3 {
		pin = parts[2]
		if pin == "" {
			return "", "", "", fmt.Errorf("invalid pin address %q: empty pin", s)
		}
	}
	return owner, kind, pin, nil
}

// ValidNodeID reports whether id can be used as a node identifier.
// Dots are reserved by the pin address syntax and '@' by the graph boundary.
func ValidNodeID(id NodeID) bool {
	return id != "" && !strings.ContainsAny(string(id), ".@")
}
