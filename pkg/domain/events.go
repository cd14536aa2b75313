package domain

import (
	"context"
	"fmt"
	"time"
)

// EventKind identifies how an animation event is interpreted by a state machine.
type EventKind uint8

const (
	// EventString is a named trigger matched against transition events.
	EventString EventKind = iota
	// EventTransition requests a transition by id.
	EventTransition
	// EventTransitionTo requests the first transition leading to the state with this id.
	EventTransitionTo
	// EventEndTransition finishes the transition currently running.
	EventEndTransition
)

func (k EventKind) String() string {
	switch k {
	case EventTransition:
		return "transition"
	case EventTransitionTo:
		return "transition_to"
	case EventEndTransition:
		return "end_transition"
	default:
		return "string"
	}
}

// Event is a message flowing through event_queue pins.
type Event struct {
	Kind EventKind
	ID   string
}

// Named builds an EventString event.
func Named(id string) Event { return Event{Kind: EventString, ID: id} }

// EventQueue is an ordered batch of events.
type EventQueue []Event

func (EventQueue) Type() PinType { return TypeEventQueue }

// PassKind names the compute pass a lifecycle event refers to.
type PassKind string

const (
	PassData       PassKind = "data"
	PassDuration   PassKind = "duration"
	PassPose       PassKind = "pose"
	PassTimeUpdate PassKind = "time_update"
	PassUpdate     PassKind = "update"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Instance  string    `json:"instance"`
	Frame     uint64    `json:"frame"`
}

// PassEvent reports a node pass or a cache hit.
type PassEvent struct {
	EventBase
	Graph   string   `json:"graph"`
	NodeID  NodeID   `json:"node_id"`
	Pass    PassKind `json:"pass"`
	Context int      `json:"context"`
	Temp    bool     `json:"temp,omitempty"`
}

// StateEvent reports a state machine entering or leaving a state.
type StateEvent struct {
	EventBase
	Machine    string       `json:"machine"`
	State      StateID      `json:"state"`
	Transition TransitionID `json:"transition,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnNodePass   func(context.Context, *PassEvent)
	OnCacheHit   func(context.Context, *PassEvent)
	OnStateEnter func(context.Context, *StateEvent)
	OnStateLeave func(context.Context, *StateEvent)
}

// StateRole selects one side of a running transition.
type StateRole uint8

const (
	RoleSource StateRole = iota
	RoleTarget
)

func (r StateRole) String() string {
	if r == RoleTarget {
		return "target"
	}
	return "source"
}

// ParseStateRole accepts "source" and "target".
func ParseStateRole(s string) (StateRole, bool) {
	switch s {
	case "source":
		return RoleSource, true
	case "target":
		return RoleTarget, true
	}
	return 0, false
}

// ParseEventKind converts a document name to an EventKind. Empty means EventString.
func ParseEventKind(name string) (EventKind, error) {
	switch name {
	case "", "string":
		return EventString, nil
	case "transition":
		return EventTransition, nil
	case "transition_to":
		return EventTransitionTo, nil
	case "end_transition":
		return EventEndTransition, nil
	}
	return EventString, fmt.Errorf("unsupported event kind: %s", name)
}
