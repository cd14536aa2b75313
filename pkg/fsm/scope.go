package fsm

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// roleMarker records a state being sampled on behalf of a transition.
type roleMarker struct {
	State domain.StateID
	Role  domain.StateRole
}

// machineScope is the MachineScope seen by nodes inside a state graph. Only
// transition graphs may sample their source and target states.
type machineScope struct {
	node       *MachineNode
	ctx        graph.PassContext
	st         *machineState
	transition *State
	stack      *[]roleMarker
}

var _ graph.MachineScope = (*machineScope)(nil)

func (s *machineScope) resolve(role domain.StateRole) (*State, error) {
	m := s.node.Machine
	if s.transition == nil {
		return nil, &domain.MachineError{Machine: m.Name, State: s.st.Current, Err: domain.ErrExpectedTransitionFoundState}
	}
	id := s.transition.Source
	if role == domain.RoleTarget {
		id = s.transition.Target
	}
	state, ok := m.State(id)
	if !ok || state.Graph == nil {
		return nil, &domain.MachineError{
			Machine: m.Name,
			State:   id,
			Err:     fmt.Errorf("%s of %q: %w", role, s.transition.ID, domain.ErrRequestedMissingData),
		}
	}
	for _, marker := range *s.stack {
		if marker.State == id {
			return nil, &domain.MachineError{
				Machine: m.Name,
				State:   id,
				Err:     fmt.Errorf("state sampled recursively: %w", domain.ErrCyclicDependency),
			}
		}
	}
	return state, nil
}

// enter pushes (state, role) for the duration of a cross-state query and
// returns the nested scope of that state plus the function unwinding it.
func (s *machineScope) enter(state *State, role domain.StateRole) (graph.Nested, func()) {
	*s.stack = append(*s.stack, roleMarker{State: state.ID, Role: role})
	inner := &machineScope{node: s.node, ctx: s.ctx, st: s.st, stack: s.stack}
	if state.Kind == KindTransition {
		inner.transition = state
	}
	n := s.ctx.Nested(state.Graph, state.ID, graph.WithScope(inner))
	return n, func() {
		*s.stack = (*s.stack)[:len(*s.stack)-1]
	}
}

func (s *machineScope) StatePose(role domain.StateRole, update domain.TimeUpdate) (domain.Pose, error) {
	state, err := s.resolve(role)
	if err != nil {
		return domain.Pose{}, err
	}
	if role == domain.RoleTarget && s.st.TargetFresh {
		update = domain.Absolute(0)
		s.st.TargetFresh = false
	}
	n, unwind := s.enter(state, role)
	defer unwind()
	return n.PoseOut(update)
}

func (s *machineScope) StateDuration(role domain.StateRole) (domain.Duration, error) {
	state, err := s.resolve(role)
	if err != nil {
		return domain.Duration{}, err
	}
	n, unwind := s.enter(state, role)
	defer unwind()
	return n.DurationOut()
}

// StatePoseNode samples the source or target state of the enclosing
// transition. It is only meaningful inside a transition graph.
type StatePoseNode struct {
	Role domain.StateRole
}

func (n *StatePoseNode) Spec() graph.NodeSpec {
	return graph.NodeSpec{TimeOutput: &domain.TimeSpec{}}
}

func (n *StatePoseNode) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	scope := ctx.Scope()
	if scope == nil {
		return fmt.Errorf("state_pose %s: no enclosing state machine: %w", n.Role, domain.ErrRequestedMissingData)
	}
	p, err := scope.StatePose(n.Role, update)
	if err != nil {
		return err
	}
	ctx.SetPoseFwd(p)
	return nil
}

func (n *StatePoseNode) Duration(ctx graph.PassContext) error {
	scope := ctx.Scope()
	if scope == nil {
		return nil
	}
	d, err := scope.StateDuration(n.Role)
	if err != nil {
		return err
	}
	ctx.SetDurationFwd(d)
	return nil
}
