package dto

import (
	"fmt"
	"sort"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
)

// Pin describes one declared pin. Type is set for data pins, Space for time pins.
type Pin struct {
	ID      string `json:"id"`
	Type    string `json:"type,omitempty"`
	Space   string `json:"space,omitempty"`
	Default any    `json:"default,omitempty"`
}

// Node describes one node of a graph and the pins of its capability.
type Node struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind,omitempty"`
	DataInputs  []Pin           `json:"data_inputs,omitempty"`
	DataOutputs []Pin           `json:"data_outputs,omitempty"`
	TimeInputs  []Pin           `json:"time_inputs,omitempty"`
	TimeOutput  *Pin            `json:"time_output,omitempty"`
	Position    *graph.Position `json:"position,omitempty"`
}

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the JSON description of a compiled graph.
type Graph struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Inputs     []Pin  `json:"inputs,omitempty"`
	TimeInputs []Pin  `json:"time_inputs,omitempty"`
	Outputs    []Pin  `json:"outputs,omitempty"`
	Pose       *Pin   `json:"pose,omitempty"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

type State struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Graph    string  `json:"graph,omitempty"`
	Source   string  `json:"source,omitempty"`
	Target   string  `json:"target,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type Transition struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Event string `json:"event,omitempty"`
}

// Machine is the JSON description of a compiled state machine.
type Machine struct {
	Kind        string       `json:"kind"`
	Name        string       `json:"name"`
	Start       string       `json:"start"`
	Inputs      []Pin        `json:"inputs,omitempty"`
	TimeInputs  []Pin        `json:"time_inputs,omitempty"`
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

// Bone is the JSON form of a bone transform.
type Bone struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
}

// Frame is the result of one evaluated frame.
type Frame struct {
	Frame     uint64          `json:"frame"`
	Timestamp float64         `json:"timestamp"`
	Space     string          `json:"space"`
	Bones     map[string]Bone `json:"bones,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
}

// DescribeGraph lists the boundary, nodes and edges of g.
func DescribeGraph(g *graph.Graph) Graph {
	out := Graph{
		Kind:       "graph",
		Name:       g.Name,
		Inputs:     dataPins(g.InputData()),
		TimeInputs: timePins(g.InputTime()),
		Outputs:    dataPins(g.OutputData()),
		Nodes:      []Node{},
		Edges:      []Edge{},
	}
	for i := range out.Inputs {
		if v, ok := g.Default(domain.PinID(out.Inputs[i].ID)); ok {
			out.Inputs[i].Default = ValueJSON(v)
		}
	}
	if spec, ok := g.OutputTime(); ok {
		out.Pose = &Pin{ID: "pose", Space: spec.Space.String()}
	}
	for _, n := range g.Nodes() {
		node := Node{ID: string(n.ID), Kind: n.Kind}
		if n.Capability != nil {
			spec := n.Capability.Spec()
			node.DataInputs = dataPins(spec.DataInputs)
			node.DataOutputs = dataPins(spec.DataOutputs)
			node.TimeInputs = timePins(spec.TimeInputs)
			if spec.TimeOutput != nil {
				node.TimeOutput = &Pin{ID: "time", Space: spec.TimeOutput.Space.String()}
			}
		}
		if pos, ok := g.Layout[n.ID]; ok {
			node.Position = &pos
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{Source: e.Source.String(), Target: e.Target.String()})
	}
	return out
}

// DescribeMachine lists the states and transitions of m.
func DescribeMachine(m *fsm.Machine) Machine {
	out := Machine{
		Kind:        "machine",
		Name:        m.Name,
		Start:       string(m.Start),
		Inputs:      dataPins(m.DataInputs),
		TimeInputs:  timePins(m.TimeInputs),
		States:      make([]State, 0, len(m.States)),
		Transitions: make([]Transition, 0, len(m.Transitions)),
	}
	for _, s := range m.States {
		st := State{
			ID:       string(s.ID),
			Kind:     s.Kind.String(),
			Source:   string(s.Source),
			Target:   string(s.Target),
			Duration: s.Duration,
		}
		if s.Graph != nil {
			st.Graph = s.Graph.Name
		}
		out.States = append(out.States, st)
	}
	for _, t := range m.Transitions {
		out.Transitions = append(out.Transitions, Transition{
			ID:    string(t.ID),
			From:  string(t.From),
			To:    string(t.To),
			Event: t.Event,
		})
	}
	return out
}

// NewFrame converts an evaluated pose and data outputs.
func NewFrame(frame uint64, p domain.Pose, data map[domain.PinID]domain.Value) Frame {
	out := Frame{
		Frame:     frame,
		Timestamp: p.Timestamp,
		Space:     p.Space.String(),
	}
	if len(p.Bones) > 0 {
		out.Bones = make(map[string]Bone, len(p.Bones))
		for name, t := range p.Bones {
			out.Bones[name] = Bone{
				Translation: [3]float64{t.Translation.X, t.Translation.Y, t.Translation.Z},
				Rotation:    [4]float64{t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W},
				Scale:       [3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z},
			}
		}
	}
	if len(data) > 0 {
		out.Data = make(map[string]any, len(data))
		for pin, v := range data {
			out.Data[string(pin)] = ValueJSON(v)
		}
	}
	return out
}

// ValueJSON converts a pin value to plain JSON types.
func ValueJSON(v domain.Value) any {
	switch x := v.(type) {
	case domain.Float:
		return float64(x)
	case domain.Int:
		return int64(x)
	case domain.Bool:
		return bool(x)
	case domain.String:
		return string(x)
	case domain.Vec3:
		return []float64{x.X, x.Y, x.Z}
	case domain.Quat:
		return []float64{x.X, x.Y, x.Z, x.W}
	case domain.BoneMask:
		return map[string]float64(x)
	case domain.EventQueue:
		names := make([]string, len(x))
		for i, ev := range x {
			names[i] = ev.ID
		}
		return names
	case domain.Pose:
		return NewFrame(0, x, nil)
	}
	return nil
}

func dataPins(s *graph.DataSpec) []Pin {
	var out []Pin
	for _, p := range graph.DataPins(s) {
		out = append(out, Pin{ID: string(p.ID), Type: p.Type.String()})
	}
	return out
}

func timePins(s *graph.TimeSpecs) []Pin {
	var out []Pin
	for _, p := range graph.TimePins(s) {
		out = append(out, Pin{ID: string(p.ID), Space: p.Spec.Space.String()})
	}
	return out
}

// DecodeInputs converts JSON values to the declared types of the graph data
// inputs. Names are checked in sorted order so errors are deterministic.
func DecodeInputs(g *graph.Graph, raw map[string]any) (map[domain.PinID]domain.Value, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[domain.PinID]domain.Value, len(raw))
	for _, name := range names {
		typ, ok := g.InputData().Get(domain.PinID(name))
		if !ok {
			return nil, fmt.Errorf("graph %q has no input %q", g.Name, name)
		}
		v, err := domain.ValueFrom(typ, raw[name])
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		out[domain.PinID(name)] = v
	}
	return out, nil
}
