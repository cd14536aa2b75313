package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
)

// MachineBuilder describes a state machine in terms of states and
// transitions, and compiles it into the low-level fsm.Machine table.
type MachineBuilder struct {
	name        string
	start       domain.StateID
	states      []stateDef
	transitions []*TransitionBuilder
	inputs      *graph.DataSpec
	timeInputs  *graph.TimeSpecs
}

type stateDef struct {
	id domain.StateID
	g  *graph.Graph
}

// NewMachine creates a machine builder. The first state added is the start
// state unless Start says otherwise.
func NewMachine(name string) *MachineBuilder {
	return &MachineBuilder{
		name:       name,
		inputs:     graph.NewDataSpec(),
		timeInputs: graph.NewTimeSpecs(),
	}
}

// State adds a state playing g.
func (m *MachineBuilder) State(id string, g *graph.Graph) *MachineBuilder {
	m.states = append(m.states, stateDef{id: domain.StateID(id), g: g})
	if m.start == "" {
		m.start = domain.StateID(id)
	}
	return m
}

// Start sets the initial state.
func (m *MachineBuilder) Start(id string) *MachineBuilder {
	m.start = domain.StateID(id)
	return m
}

// Input exposes a data input on the machine node.
func (m *MachineBuilder) Input(pin string, typ domain.PinType) *MachineBuilder {
	m.inputs.Set(domain.PinID(pin), typ)
	return m
}

// TimeInput exposes a time input on the machine node.
func (m *MachineBuilder) TimeInput(pin string, space domain.PoseSpace) *MachineBuilder {
	m.timeInputs.Set(domain.PinID(pin), domain.TimeSpec{Space: space})
	return m
}

// Transition adds a transition from one state to another and returns it for
// further configuration. Its id defaults to "<from>_to_<to>".
func (m *MachineBuilder) Transition(from, to string) *TransitionBuilder {
	t := &TransitionBuilder{
		id:   domain.TransitionID(from + "_to_" + to),
		from: domain.StateID(from),
		to:   domain.StateID(to),
	}
	m.transitions = append(m.transitions, t)
	return t
}

// TransitionBuilder configures one transition.
type TransitionBuilder struct {
	id       domain.TransitionID
	from     domain.StateID
	to       domain.StateID
	event    string
	blend    *graph.Graph
	duration float64
}

// ID overrides the generated transition id.
func (t *TransitionBuilder) ID(id string) *TransitionBuilder {
	t.id = domain.TransitionID(id)
	return t
}

// On sets the string event triggering the transition.
func (t *TransitionBuilder) On(event string) *TransitionBuilder {
	t.event = event
	return t
}

// Blend makes the transition run g between the two states. With a positive
// duration the transition ends by itself; otherwise it waits for an
// end_transition event.
func (t *TransitionBuilder) Blend(g *graph.Graph, duration float64) *TransitionBuilder {
	t.blend = g
	t.duration = duration
	return t
}

// EndTransitionID is the id of the table entry leaving the transition state
// created for a blended transition.
func EndTransitionID(id domain.TransitionID) domain.TransitionID {
	return id + "/end"
}

// Build compiles the description. Immediate transitions map to table entries
// directly. A blended transition becomes a transition state named after the
// transition, entered by a start edge with the transition's id and event and
// left by an end edge towards the target.
func (m *MachineBuilder) Build() (*fsm.Machine, error) {
	out := &fsm.Machine{
		Name:       m.name,
		Start:      m.start,
		DataInputs: m.inputs,
		TimeInputs: m.timeInputs,
	}
	var errs []error
	for _, s := range m.states {
		out.States = append(out.States, fsm.State{ID: s.id, Kind: fsm.KindState, Graph: s.g})
	}
	for _, t := range m.transitions {
		if t.blend == nil {
			out.Transitions = append(out.Transitions, fsm.Transition{ID: t.id, From: t.from, To: t.to, Event: t.event})
			continue
		}
		if t.duration < 0 {
			errs = append(errs, fmt.Errorf("transition %q: negative duration %g", t.id, t.duration))
		}
		state := domain.StateID(t.id)
		out.States = append(out.States, fsm.State{
			ID:       state,
			Kind:     fsm.KindTransition,
			Graph:    t.blend,
			Source:   t.from,
			Target:   t.to,
			Duration: t.duration,
		})
		out.Transitions = append(out.Transitions,
			fsm.Transition{ID: t.id, From: t.from, To: state, Event: t.event},
			fsm.Transition{ID: EndTransitionID(t.id), From: state, To: t.to},
		)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, &domain.MachineError{Machine: m.name, Err: err}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
