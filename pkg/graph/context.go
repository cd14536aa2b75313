package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sinew/pkg/domain"
)

// PassContext is the request object a node receives during a compute pass.
// Inputs are pulled exclusively through it, so the same node implementation
// runs unmodified at the top level, inside a subgraph or inside a state machine.
type PassContext interface {
	Context() context.Context
	Logger() *slog.Logger
	Hooks() domain.LifecycleHooks
	EventBase() domain.EventBase

	// NodeID is the node currently being evaluated.
	NodeID() domain.NodeID
	// Graph is the graph the current node belongs to.
	Graph() *Graph

	DataBack(pin domain.PinID) (domain.Value, error)
	DurationBack(pin domain.PinID) (domain.Duration, error)
	PoseBack(pin domain.PinID, update domain.TimeUpdate) (domain.Pose, error)
	TimeUpdateBack(pin domain.PinID) (domain.TimeUpdate, error)
	// TimeBack returns the last timestamp produced by the source of a time input,
	// without evaluating anything.
	TimeBack(pin domain.PinID) (float64, bool)
	// PrevTime is the timestamp the current node's time output produced last.
	// It survives frame boundaries and is the base for Delta updates.
	PrevTime() (float64, bool)

	// TimeUpdateFwd is the update the current node was asked to apply. Data
	// and update passes see the update the frame began with.
	TimeUpdateFwd() domain.TimeUpdate

	SetDataFwd(pin domain.PinID, v domain.Value)
	SetDurationFwd(d domain.Duration)
	SetPoseFwd(p domain.Pose)
	SetTimeUpdateFwd(u domain.TimeUpdate)

	// State is the persistent slot of the current node in the current context.
	State() StateSlot

	// Nested returns an evaluation scope for a graph owned by the current node.
	// Each (node, state) pair keeps its own memory across frames.
	Nested(g *Graph, state domain.StateID, opts ...NestedOption) Nested

	// Scope is the nearest enclosing state machine, or nil.
	Scope() MachineScope
}

// Nested queries the outputs of a graph owned by a node.
type Nested interface {
	DataOut(pin domain.PinID) (domain.Value, error)
	DurationOut() (domain.Duration, error)
	PoseOut(update domain.TimeUpdate) (domain.Pose, error)
	TimeUpdateOut() (domain.TimeUpdate, error)
	// Update runs the update pass of every node of the nested graph.
	Update() error
}

// MachineScope lets nodes inside a transition graph sample the states being
// transitioned from and to.
type MachineScope interface {
	StatePose(role domain.StateRole, update domain.TimeUpdate) (domain.Pose, error)
	StateDuration(role domain.StateRole) (domain.Duration, error)
}

// Overlay holds caller supplied graph inputs that take precedence over declared defaults.
type Overlay struct {
	Data    map[domain.PinID]domain.Value
	Poses   map[domain.PinID]domain.Pose
	Updates map[domain.PinID]domain.TimeUpdate
}

// NestedConfig is assembled from NestedOption values.
type NestedConfig struct {
	Overlay Overlay
	Scope   MachineScope
}

// NestedOption configures a nested evaluation scope.
type NestedOption func(*NestedConfig)

// WithOverlay injects inputs owned by the node creating the nested scope.
func WithOverlay(o Overlay) NestedOption {
	return func(c *NestedConfig) {
		c.Overlay = o
	}
}

// WithScope sets the machine scope visible inside the nested graph.
func WithScope(s MachineScope) NestedOption {
	return func(c *NestedConfig) {
		c.Scope = s
	}
}

// StateSlot stores the persistent state of one node in one context.
// Load reports owned=false when the value belongs to an outer cache (a preview
// reading committed state); callers must copy before mutating it.
type StateSlot interface {
	Load() (v any, owned bool, ok bool)
	Store(v any)
}

// LocalState returns the typed state record of the current node, creating it
// with init on first access. The record persists across frames.
func LocalState[S any](ctx PassContext, init func() S) (*S, error) {
	slot := ctx.State()
	if v, owned, ok := slot.Load(); ok {
		s, ok := v.(*S)
		if !ok {
			return nil, fmt.Errorf("node %q: %w: have %T", ctx.NodeID(), domain.ErrStateTypeMismatch, v)
		}
		if !owned {
			cp := *s
			slot.Store(&cp)
			return &cp, nil
		}
		return s, nil
	}
	s := init()
	slot.Store(&s)
	return &s, nil
}
