package fsm

import (
	"errors"
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// Reserved pins of state machines.
const (
	// PinEvents is the event queue input of a machine node and the reserved
	// output through which a state graph emits events back to its machine.
	PinEvents domain.PinID = "events"
	// PinElapsedFraction is injected into transition graphs: time spent in the
	// transition divided by its duration, clamped to [0, 1].
	PinElapsedFraction domain.PinID = "elapsed_fraction"
	// PinState outputs the id of the current state.
	PinState domain.PinID = "state"
	// PinElapsed outputs the seconds spent in the current state.
	PinElapsed domain.PinID = "elapsed"
)

// StateKind distinguishes regular states from transition states.
type StateKind uint8

const (
	KindState StateKind = iota
	KindTransition
)

func (k StateKind) String() string {
	if k == KindTransition {
		return "transition"
	}
	return "state"
}

// State is one node of a machine. Transition states run a blend graph between
// Source and Target and end on an end_transition event or after Duration seconds.
type State struct {
	ID    domain.StateID
	Kind  StateKind
	Graph *graph.Graph

	Source   domain.StateID
	Target   domain.StateID
	Duration float64
}

// Transition is an edge of the machine. Event names the string event
// triggering it; transitions are also reachable by id or by target state.
type Transition struct {
	ID    domain.TransitionID
	From  domain.StateID
	To    domain.StateID
	Event string
}

// Machine is the low-level state machine table.
type Machine struct {
	Name        string
	Start       domain.StateID
	States      []State
	Transitions []Transition

	// DataInputs and TimeInputs are exposed by the machine node. State graphs
	// read them through their own inputs of the same name.
	DataInputs *graph.DataSpec
	TimeInputs *graph.TimeSpecs
}

// State returns the state with the given id.
func (m *Machine) State(id domain.StateID) (*State, bool) {
	for i := range m.States {
		if m.States[i].ID == id {
			return &m.States[i], true
		}
	}
	return nil, false
}

// Transition returns the transition with the given id.
func (m *Machine) Transition(id domain.TransitionID) (*Transition, bool) {
	for i := range m.Transitions {
		if m.Transitions[i].ID == id {
			return &m.Transitions[i], true
		}
	}
	return nil, false
}

// Match returns the first transition leaving from that ev selects.
// End-transition events never match a table entry.
func (m *Machine) Match(from domain.StateID, ev domain.Event) (*Transition, bool) {
	for i := range m.Transitions {
		t := &m.Transitions[i]
		if t.From != from {
			continue
		}
		switch ev.Kind {
		case domain.EventString:
			if t.Event != "" && t.Event == ev.ID {
				return t, true
			}
		case domain.EventTransition:
			if string(t.ID) == ev.ID {
				return t, true
			}
		case domain.EventTransitionTo:
			if string(t.To) == ev.ID {
				return t, true
			}
		}
	}
	return nil, false
}

// Validate checks the table for structural problems. All problems are reported.
func (m *Machine) Validate() error {
	var errs []error
	seen := make(map[domain.StateID]bool, len(m.States))
	for _, s := range m.States {
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate state %q", s.ID))
		}
		seen[s.ID] = true
		if s.Graph == nil {
			errs = append(errs, fmt.Errorf("state %q: %w", s.ID, domain.ErrGraphAssetMissing))
		}
	}
	if !seen[m.Start] {
		errs = append(errs, fmt.Errorf("start state %q: %w", m.Start, domain.ErrCurrentStateMissing))
	}
	for _, s := range m.States {
		if s.Kind != KindTransition {
			continue
		}
		if !seen[s.Source] || !seen[s.Target] {
			errs = append(errs, fmt.Errorf("transition state %q joins unknown states %q -> %q", s.ID, s.Source, s.Target))
		}
		if s.Duration < 0 {
			errs = append(errs, fmt.Errorf("transition state %q has negative duration", s.ID))
		}
	}
	ids := make(map[domain.TransitionID]bool, len(m.Transitions))
	for _, t := range m.Transitions {
		if ids[t.ID] {
			errs = append(errs, fmt.Errorf("duplicate transition %q", t.ID))
		}
		ids[t.ID] = true
		if !seen[t.From] || !seen[t.To] {
			errs = append(errs, fmt.Errorf("transition %q joins unknown states %q -> %q", t.ID, t.From, t.To))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return &domain.MachineError{Machine: m.Name, Err: err}
	}
	return nil
}
