package fsm

import (
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// maxFeedbackRounds bounds how many times events emitted by state graphs may
// switch state within one frame.
const maxFeedbackRounds = 8

// MachineNode runs a Machine as a node of a graph. Each state graph is
// evaluated in its own context keyed by state id, so states keep their memory
// while inactive.
type MachineNode struct {
	Machine *Machine
}

type machineState struct {
	Started   bool
	Frame     uint64
	Current   domain.StateID
	Via       domain.TransitionID
	LocalTime float64
	EnteredAt float64
	// Fresh marks a state that must restart its graph at time zero.
	Fresh bool
	// TargetFresh marks a transition whose target has not been sampled yet.
	TargetFresh bool
}

func newMachineState() machineState { return machineState{} }

func (st *machineState) elapsed() float64 {
	return math.Max(0, st.LocalTime-st.EnteredAt)
}

func (n *MachineNode) Spec() graph.NodeSpec {
	in := graph.NewDataSpec(graph.DataPins(n.Machine.DataInputs)...)
	in.Set(PinEvents, domain.TypeEventQueue)
	return graph.NodeSpec{
		DataInputs: in,
		DataOutputs: graph.NewDataSpec(
			graph.DataPin{ID: PinState, Type: domain.TypeString},
			graph.DataPin{ID: PinElapsed, Type: domain.TypeFloat},
		),
		TimeInputs: graph.NewTimeSpecs(graph.TimePins(n.Machine.TimeInputs)...),
		TimeOutput: &domain.TimeSpec{},
	}
}

// Update advances the machine and runs the update pass of the active state graph.
func (n *MachineNode) Update(ctx graph.PassContext) error {
	st, err := graph.LocalState(ctx, newMachineState)
	if err != nil {
		return err
	}
	if err := n.advance(ctx, st, ctx.TimeUpdateFwd()); err != nil {
		return err
	}
	state, err := n.current(st)
	if err != nil {
		return err
	}
	return n.nested(ctx, st, state, new([]roleMarker)).Update()
}

func (n *MachineNode) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	st, err := graph.LocalState(ctx, newMachineState)
	if err != nil {
		return err
	}
	if err := n.advance(ctx, st, update); err != nil {
		return err
	}
	pose, err := n.evaluate(ctx, st, update)
	if err != nil {
		return err
	}
	ctx.SetPoseFwd(pose)
	n.publish(ctx, st)
	return nil
}

// Data publishes the state reached this frame. It advances the machine when
// no pose or update pass did so yet.
func (n *MachineNode) Data(ctx graph.PassContext) error {
	st, err := graph.LocalState(ctx, newMachineState)
	if err != nil {
		return err
	}
	if err := n.advance(ctx, st, ctx.TimeUpdateFwd()); err != nil {
		return err
	}
	n.publish(ctx, st)
	return nil
}

func (n *MachineNode) Duration(ctx graph.PassContext) error {
	st, err := graph.LocalState(ctx, newMachineState)
	if err != nil {
		return err
	}
	if !st.Started {
		return nil
	}
	state, err := n.current(st)
	if err != nil {
		return err
	}
	if state.Kind == KindTransition && state.Duration > 0 {
		ctx.SetDurationFwd(domain.Seconds(state.Duration))
		return nil
	}
	d, err := n.nested(ctx, st, state, new([]roleMarker)).DurationOut()
	if err != nil {
		return n.fail(state.ID, err)
	}
	ctx.SetDurationFwd(d)
	return nil
}

func (n *MachineNode) publish(ctx graph.PassContext, st *machineState) {
	ctx.SetDataFwd(PinState, domain.String(st.Current))
	ctx.SetDataFwd(PinElapsed, domain.Float(st.elapsed()))
}

// advance moves local time and drains the event input, once per frame.
func (n *MachineNode) advance(ctx graph.PassContext, st *machineState, update domain.TimeUpdate) error {
	frame := ctx.EventBase().Frame
	if st.Started && st.Frame == frame {
		return nil
	}
	st.Frame = frame
	st.LocalTime = update.Apply(st.LocalTime)
	if !st.Started {
		st.Started = true
		n.enter(ctx, st, n.Machine.Start, "")
	}

	events, err := n.pendingEvents(ctx)
	if err != nil {
		return err
	}
	if _, err := n.drain(ctx, st, events); err != nil {
		return err
	}
	return n.settle(ctx, st)
}

// settle leaves transitions whose fixed duration has run out.
func (n *MachineNode) settle(ctx graph.PassContext, st *machineState) error {
	for range maxFeedbackRounds {
		state, err := n.current(st)
		if err != nil {
			return err
		}
		if state.Kind != KindTransition || state.Duration <= 0 || st.elapsed() < state.Duration {
			return nil
		}
		n.enter(ctx, st, state.Target, "")
	}
	return nil
}

func (n *MachineNode) pendingEvents(ctx graph.PassContext) (domain.EventQueue, error) {
	if _, ok := ctx.Graph().SourceOf(domain.NodeInputData(ctx.NodeID(), PinEvents)); !ok {
		return nil, nil
	}
	v, err := ctx.DataBack(PinEvents)
	if err != nil {
		return nil, err
	}
	q, ok := v.(domain.EventQueue)
	if !ok {
		return nil, fmt.Errorf("events input: expected event queue, got %T", v)
	}
	return q, nil
}

// drain applies events in order. Each event is matched against the state
// reached by the previous ones.
func (n *MachineNode) drain(ctx graph.PassContext, st *machineState, events domain.EventQueue) (bool, error) {
	changed := false
	for _, ev := range events {
		cur, err := n.current(st)
		if err != nil {
			return changed, err
		}
		if ev.Kind == domain.EventEndTransition {
			if cur.Kind != KindTransition {
				ctx.Logger().Debug("end_transition ignored", "machine", n.Machine.Name, "state", cur.ID)
				continue
			}
			n.enter(ctx, st, cur.Target, "")
			changed = true
			continue
		}
		if t, ok := n.Machine.Match(cur.ID, ev); ok {
			n.enter(ctx, st, t.To, t.ID)
			changed = true
		}
	}
	return changed, nil
}

func (n *MachineNode) enter(ctx graph.PassContext, st *machineState, to domain.StateID, via domain.TransitionID) {
	hooks := ctx.Hooks()
	prev, hadPrev := n.Machine.State(st.Current)
	if st.Current != "" && hooks.OnStateLeave != nil {
		hooks.OnStateLeave(ctx.Context(), &domain.StateEvent{
			EventBase:  ctx.EventBase(),
			Machine:    n.Machine.Name,
			State:      st.Current,
			Transition: via,
		})
	}

	// A transition ending into its target hands over a state that is already playing.
	continuing := hadPrev && prev.Kind == KindTransition && prev.Target == to && !st.TargetFresh

	st.Current = to
	st.Via = via
	st.EnteredAt = st.LocalTime
	st.Fresh = !continuing
	if next, ok := n.Machine.State(to); ok && next.Kind == KindTransition {
		// The source keeps playing; only the target restarts.
		st.Fresh = false
		st.TargetFresh = true
	}

	ctx.Logger().Debug("state entered", "machine", n.Machine.Name, "state", to, "transition", via)
	if hooks.OnStateEnter != nil {
		hooks.OnStateEnter(ctx.Context(), &domain.StateEvent{
			EventBase:  ctx.EventBase(),
			Machine:    n.Machine.Name,
			State:      to,
			Transition: via,
		})
	}
}

// evaluate samples the active state, following auto-ending transitions and
// state switches requested by events the state graph emits.
func (n *MachineNode) evaluate(ctx graph.PassContext, st *machineState, update domain.TimeUpdate) (domain.Pose, error) {
	var pose domain.Pose
	for round := 0; round <= maxFeedbackRounds; round++ {
		state, err := n.current(st)
		if err != nil {
			return domain.Pose{}, err
		}
		if state.Kind == KindTransition && state.Duration > 0 && st.elapsed() >= state.Duration {
			n.enter(ctx, st, state.Target, "")
			continue
		}

		stack := new([]roleMarker)
		nested := n.nested(ctx, st, state, stack)
		u := update
		switch {
		case st.Fresh:
			u = domain.Absolute(0)
			st.Fresh = false
		case update.Kind == domain.TimeAbsolute:
			u = domain.Absolute(st.elapsed())
		}

		pose, err = nested.PoseOut(u)
		if err != nil {
			return domain.Pose{}, n.fail(state.ID, err)
		}

		events, err := n.emitted(state, nested)
		if err != nil {
			return domain.Pose{}, n.fail(state.ID, err)
		}
		changed, err := n.drain(ctx, st, events)
		if err != nil {
			return domain.Pose{}, err
		}
		if !changed {
			return pose, nil
		}
	}
	ctx.Logger().Warn("event feedback limit reached", "machine", n.Machine.Name, "state", st.Current, "rounds", maxFeedbackRounds)
	return pose, nil
}

func (n *MachineNode) emitted(state *State, nested graph.Nested) (domain.EventQueue, error) {
	if typ, ok := state.Graph.OutputData().Get(PinEvents); !ok || typ != domain.TypeEventQueue {
		return nil, nil
	}
	v, err := nested.DataOut(PinEvents)
	if err != nil {
		if errors.Is(err, domain.ErrMissingInputEdge) {
			return nil, nil
		}
		return nil, err
	}
	q, _ := v.(domain.EventQueue)
	return q, nil
}

func (n *MachineNode) current(st *machineState) (*State, error) {
	state, ok := n.Machine.State(st.Current)
	if !ok {
		return nil, &domain.MachineError{Machine: n.Machine.Name, State: st.Current, Err: domain.ErrCurrentStateMissing}
	}
	if state.Graph == nil {
		return nil, &domain.MachineError{Machine: n.Machine.Name, State: state.ID, Err: domain.ErrGraphAssetMissing}
	}
	return state, nil
}

func (n *MachineNode) nested(ctx graph.PassContext, st *machineState, state *State, stack *[]roleMarker) graph.Nested {
	sc := &machineScope{node: n, ctx: ctx, st: st, stack: stack}
	opts := []graph.NestedOption{graph.WithScope(sc)}
	if state.Kind == KindTransition {
		sc.transition = state
		fraction := 0.0
		if state.Duration > 0 {
			fraction = math.Min(st.elapsed()/state.Duration, 1)
		}
		opts = append(opts, graph.WithOverlay(graph.Overlay{
			Data: map[domain.PinID]domain.Value{PinElapsedFraction: domain.Float(fraction)},
		}))
	}
	return ctx.Nested(state.Graph, state.ID, opts...)
}

func (n *MachineNode) fail(state domain.StateID, err error) error {
	var me *domain.MachineError
	if errors.As(err, &me) {
		return err
	}
	return &domain.MachineError{Machine: n.Machine.Name, State: state, Err: err}
}
