package runtime

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// guardKey identifies a node pass in progress. Re-entering one means the
// graph contains a cycle.
type guardKey struct {
	ctx  ContextID
	src  domain.SourcePin
	pass domain.PassKind
	temp bool
}

func (in *Instance) enter(ec *EvalContext, target domain.TargetPin, src domain.SourcePin, pass domain.PassKind, temp bool) (func(), error) {
	key := guardKey{ctx: ec.ID, src: src, pass: pass, temp: temp}
	in.path = append(in.path, target)
	if in.inflight[key] {
		path := append([]domain.TargetPin(nil), in.path...)
		in.path = in.path[:len(in.path)-1]
		in.logger.Warn("cycle detected", "graph", ec.Graph.Name, "source", src.String(), "pass", pass)
		return nil, &domain.CycleError{Path: path}
	}
	in.inflight[key] = true
	return func() {
		delete(in.inflight, key)
		in.path = in.path[:len(in.path)-1]
	}, nil
}

func (in *Instance) cacheFor(ec *EvalContext, temp bool) *Cache {
	ec.touch(in.frame)
	if temp {
		return ec.temp(in.tempLevel())
	}
	return ec.primary
}

func (in *Instance) source(ec *EvalContext, target domain.TargetPin) (domain.SourcePin, error) {
	src, ok := ec.Graph.SourceOf(target)
	if !ok {
		return src, &domain.MissingInputError{Graph: ec.Graph.Name, Target: target}
	}
	return src, nil
}

func (in *Instance) nodeOf(ec *EvalContext, src domain.SourcePin) (*graph.Node, error) {
	n, ok := ec.Graph.Node(src.Node)
	if !ok {
		return nil, fmt.Errorf("graph %q: source %s refers to unknown node", ec.Graph.Name, src)
	}
	return n, nil
}

func (in *Instance) parentOf(ec *EvalContext) (*EvalContext, bool) {
	if ec.IsRoot() {
		return nil, false
	}
	return in.arena.Get(ec.Parent)
}

func (in *Instance) run(ec *EvalContext, node *graph.Node, kind domain.PassKind, temp bool, update domain.TimeUpdate, fn func(*pass) error) error {
	p := &pass{in: in, ec: ec, node: node, temp: temp, update: update}
	in.firePass(ec, node.ID, kind, temp)
	if node.Debug {
		in.logger.Info("node pass", "node", node.ID, "kind", node.Kind, "pass", kind, "context", ec.ID, "temp", temp, "update", update.String())
	} else {
		in.logger.Debug("node pass", "node", node.ID, "pass", kind, "context", ec.ID)
	}
	if err := fn(p); err != nil {
		in.logger.Debug("node pass failed", "node", node.ID, "pass", kind, "error", err)
		return err
	}
	return nil
}

func (in *Instance) data(ec *EvalContext, target domain.TargetPin, temp bool) (domain.Value, error) {
	src, err := in.source(ec, target)
	if err != nil {
		return nil, err
	}
	if src.IsTime() {
		return nil, &domain.KindMismatchError{Source: src, Want: "data"}
	}
	if src.IsBoundary() {
		return in.inputData(ec, src.Pin, temp)
	}

	cache := in.cacheFor(ec, temp)
	if v, ok := cache.data[src]; ok {
		in.fireHit(ec, src, domain.PassData, temp)
		return v, nil
	}

	release, err := in.enter(ec, target, src, domain.PassData, temp)
	if err != nil {
		return nil, err
	}
	defer release()

	node, err := in.nodeOf(ec, src)
	if err != nil {
		return nil, err
	}
	comp, ok := node.Capability.(graph.DataComputer)
	if !ok {
		return nil, fmt.Errorf("node %q (%s) data pass: %w", node.ID, node.Kind, domain.ErrPassNotSupported)
	}
	if err := in.run(ec, node, domain.PassData, temp, in.frameUpdate, func(p *pass) error {
		return comp.Data(p)
	}); err != nil {
		return nil, err
	}

	v, ok := cache.data[src]
	if !ok {
		return nil, fmt.Errorf("node %q: %s: %w", node.ID, src, domain.ErrMissingOutput)
	}
	return v, nil
}

func (in *Instance) pose(ec *EvalContext, target domain.TargetPin, update domain.TimeUpdate, temp bool) (domain.Pose, error) {
	src, err := in.source(ec, target)
	if err != nil {
		return domain.Pose{}, err
	}
	if !src.IsTime() {
		return domain.Pose{}, &domain.KindMismatchError{Source: src, Want: "pose"}
	}
	if src.IsBoundary() {
		return in.inputPose(ec, src.Pin, update, temp)
	}

	cache := in.cacheFor(ec, temp)
	if p, ok := cache.poses[src]; ok {
		in.fireHit(ec, src, domain.PassPose, temp)
		return p, nil
	}

	release, err := in.enter(ec, target, src, domain.PassPose, temp)
	if err != nil {
		return domain.Pose{}, err
	}
	defer release()

	node, err := in.nodeOf(ec, src)
	if err != nil {
		return domain.Pose{}, err
	}
	comp, ok := node.Capability.(graph.PoseComputer)
	if !ok {
		return domain.Pose{}, fmt.Errorf("node %q (%s) pose pass: %w", node.ID, node.Kind, domain.ErrPassNotSupported)
	}
	cache.driven[src.Node] = update
	if err := in.run(ec, node, domain.PassPose, temp, update, func(p *pass) error {
		return comp.Pose(p, update)
	}); err != nil {
		return domain.Pose{}, err
	}

	p, ok := cache.poses[src]
	if !ok {
		return domain.Pose{}, fmt.Errorf("node %q: %s: %w", node.ID, src, domain.ErrMissingOutput)
	}
	return p, nil
}

func (in *Instance) duration(ec *EvalContext, target domain.TargetPin, temp bool) (domain.Duration, error) {
	src, err := in.source(ec, target)
	if err != nil {
		return domain.Duration{}, err
	}
	if !src.IsTime() {
		return domain.Duration{}, &domain.KindMismatchError{Source: src, Want: "duration"}
	}
	if src.IsBoundary() {
		return in.inputDuration(ec, src.Pin, temp)
	}

	cache := in.cacheFor(ec, temp)
	if d, ok := cache.durations[src]; ok {
		in.fireHit(ec, src, domain.PassDuration, temp)
		return d, nil
	}

	release, err := in.enter(ec, target, src, domain.PassDuration, temp)
	if err != nil {
		return domain.Duration{}, err
	}
	defer release()

	node, err := in.nodeOf(ec, src)
	if err != nil {
		return domain.Duration{}, err
	}
	comp, ok := node.Capability.(graph.DurationComputer)
	if !ok {
		cache.durations[src] = domain.Duration{}
		return domain.Duration{}, nil
	}
	if err := in.run(ec, node, domain.PassDuration, temp, domain.TimeUpdate{}, func(p *pass) error {
		return comp.Duration(p)
	}); err != nil {
		return domain.Duration{}, err
	}

	d, ok := cache.durations[src]
	if !ok {
		cache.durations[src] = domain.Duration{}
	}
	return d, nil
}

func (in *Instance) timeUpdate(ec *EvalContext, target domain.TargetPin, temp bool) (domain.TimeUpdate, error) {
	src, err := in.source(ec, target)
	if err != nil {
		return domain.TimeUpdate{}, err
	}
	if !src.IsTime() {
		return domain.TimeUpdate{}, &domain.KindMismatchError{Source: src, Want: "time update"}
	}
	if src.IsBoundary() {
		return in.inputTimeUpdate(ec, src.Pin, temp)
	}

	cache := in.cacheFor(ec, temp)
	if u, ok := cache.updates[src]; ok {
		in.fireHit(ec, src, domain.PassTimeUpdate, temp)
		return u, nil
	}

	node, err := in.nodeOf(ec, src)
	if err != nil {
		return domain.TimeUpdate{}, err
	}
	comp, ok := node.Capability.(graph.TimeUpdater)
	if !ok {
		if u, driven := cache.driven[src.Node]; driven {
			return u, nil
		}
		return domain.TimeUpdate{}, fmt.Errorf("node %q (%s) time update pass: %w", node.ID, node.Kind, domain.ErrPassNotSupported)
	}

	release, err := in.enter(ec, target, src, domain.PassTimeUpdate, temp)
	if err != nil {
		return domain.TimeUpdate{}, err
	}
	defer release()

	if err := in.run(ec, node, domain.PassTimeUpdate, temp, domain.TimeUpdate{}, func(p *pass) error {
		return comp.TimeUpdate(p)
	}); err != nil {
		return domain.TimeUpdate{}, err
	}
	u, ok := cache.updates[src]
	if !ok {
		return domain.TimeUpdate{}, fmt.Errorf("node %q: %s: %w", node.ID, src, domain.ErrMissingOutput)
	}
	return u, nil
}

func (in *Instance) update(ec *EvalContext, temp bool) error {
	in.cacheFor(ec, temp)
	for _, n := range ec.Graph.Nodes() {
		u, ok := n.Capability.(graph.Updater)
		if !ok {
			continue
		}
		if err := in.run(ec, n, domain.PassUpdate, temp, in.frameUpdate, func(p *pass) error {
			return u.Update(p)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Graph inputs resolve, in order: the overlay injected by the owning node (or
// the caller at the root), the edge feeding the owner's matching input in the
// parent graph, then the declared default.

func (in *Instance) inputData(ec *EvalContext, pin domain.PinID, temp bool) (domain.Value, error) {
	if v, ok := ec.overlay.Data[pin]; ok {
		return v, nil
	}
	parent, hasParent := in.parentOf(ec)
	if hasParent {
		target := domain.NodeInputData(ec.Owner, pin)
		if _, connected := parent.Graph.SourceOf(target); connected {
			return in.data(parent, target, temp)
		}
	}
	if v, ok := ec.Graph.Default(pin); ok {
		return v, nil
	}
	if !hasParent {
		return nil, fmt.Errorf("graph %q input %q: %w", ec.Graph.Name, pin, domain.ErrMissingParentGraph)
	}
	return nil, &domain.MissingInputError{Graph: parent.Graph.Name, Target: domain.NodeInputData(ec.Owner, pin)}
}

func (in *Instance) inputPose(ec *EvalContext, pin domain.PinID, update domain.TimeUpdate, temp bool) (domain.Pose, error) {
	if p, ok := ec.overlay.Poses[pin]; ok {
		return p, nil
	}
	parent, hasParent := in.parentOf(ec)
	if !hasParent {
		return domain.Pose{}, fmt.Errorf("graph %q time input %q: %w", ec.Graph.Name, pin, domain.ErrMissingParentGraph)
	}
	target := domain.NodeInputTime(ec.Owner, pin)
	if _, connected := parent.Graph.SourceOf(target); !connected {
		return domain.Pose{}, &domain.MissingInputError{Graph: parent.Graph.Name, Target: target}
	}
	return in.pose(parent, target, update, temp)
}

func (in *Instance) inputDuration(ec *EvalContext, pin domain.PinID, temp bool) (domain.Duration, error) {
	parent, hasParent := in.parentOf(ec)
	if !hasParent {
		return domain.Duration{}, nil
	}
	target := domain.NodeInputTime(ec.Owner, pin)
	if _, connected := parent.Graph.SourceOf(target); !connected {
		return domain.Duration{}, nil
	}
	return in.duration(parent, target, temp)
}

func (in *Instance) inputTimeUpdate(ec *EvalContext, pin domain.PinID, temp bool) (domain.TimeUpdate, error) {
	if u, ok := ec.overlay.Updates[pin]; ok {
		return u, nil
	}
	parent, hasParent := in.parentOf(ec)
	if !hasParent {
		return domain.TimeUpdate{}, fmt.Errorf("graph %q time input %q: %w", ec.Graph.Name, pin, domain.ErrMissingParentGraph)
	}
	target := domain.NodeInputTime(ec.Owner, pin)
	if _, connected := parent.Graph.SourceOf(target); !connected {
		return domain.TimeUpdate{}, &domain.MissingInputError{Graph: parent.Graph.Name, Target: target}
	}
	return in.timeUpdate(parent, target, temp)
}

// timeOf returns the last timestamp recorded for src without evaluating anything.
// Temp lookups fall back to committed timestamps.
func (in *Instance) timeOf(ec *EvalContext, src domain.SourcePin, temp bool) (float64, bool) {
	if src.IsBoundary() {
		if p, ok := ec.overlay.Poses[src.Pin]; ok {
			return p.Timestamp, true
		}
		parent, ok := in.parentOf(ec)
		if !ok {
			return 0, false
		}
		upstream, ok := parent.Graph.SourceOf(domain.NodeInputTime(ec.Owner, src.Pin))
		if !ok {
			return 0, false
		}
		return in.timeOf(parent, upstream, temp)
	}
	if temp {
		if t, ok := ec.temp(in.tempLevel()).times[src]; ok {
			return t, true
		}
	}
	t, ok := ec.primary.times[src]
	return t, ok
}
