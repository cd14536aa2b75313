package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

var (
	_ graph.PassContext = (*pass)(nil)
	_ graph.Nested      = (*nested)(nil)
	_ graph.StateSlot   = (*slot)(nil)
)

// pass is the PassContext handed to one node for one compute pass. It shares
// the instance's caches and arena and narrows the current node.
type pass struct {
	in     *Instance
	ec     *EvalContext
	node   *graph.Node
	temp   bool
	update domain.TimeUpdate
}

func (p *pass) Context() context.Context { return p.in.goctx }

func (p *pass) Logger() *slog.Logger {
	return p.in.logger.With("node", string(p.node.ID), "context", int(p.ec.ID))
}

func (p *pass) Hooks() domain.LifecycleHooks { return p.in.hooks }

func (p *pass) EventBase() domain.EventBase { return p.in.eventBase() }

func (p *pass) NodeID() domain.NodeID { return p.node.ID }

func (p *pass) Graph() *graph.Graph { return p.ec.Graph }

func (p *pass) DataBack(pin domain.PinID) (domain.Value, error) {
	return p.in.data(p.ec, domain.NodeInputData(p.node.ID, pin), p.temp)
}

func (p *pass) DurationBack(pin domain.PinID) (domain.Duration, error) {
	return p.in.duration(p.ec, domain.NodeInputTime(p.node.ID, pin), p.temp)
}

func (p *pass) PoseBack(pin domain.PinID, update domain.TimeUpdate) (domain.Pose, error) {
	return p.in.pose(p.ec, domain.NodeInputTime(p.node.ID, pin), update, p.temp)
}

func (p *pass) TimeUpdateBack(pin domain.PinID) (domain.TimeUpdate, error) {
	return p.in.timeUpdate(p.ec, domain.NodeInputTime(p.node.ID, pin), p.temp)
}

func (p *pass) TimeBack(pin domain.PinID) (float64, bool) {
	src, ok := p.ec.Graph.SourceOf(domain.NodeInputTime(p.node.ID, pin))
	if !ok {
		return 0, false
	}
	return p.in.timeOf(p.ec, src, p.temp)
}

func (p *pass) PrevTime() (float64, bool) {
	return p.in.timeOf(p.ec, domain.NodeOutputTime(p.node.ID), p.temp)
}

func (p *pass) TimeUpdateFwd() domain.TimeUpdate { return p.update }

func (p *pass) cache() *Cache { return p.in.cacheFor(p.ec, p.temp) }

func (p *pass) SetDataFwd(pin domain.PinID, v domain.Value) {
	p.cache().data[domain.NodeOutputData(p.node.ID, pin)] = v
}

func (p *pass) SetDurationFwd(d domain.Duration) {
	p.cache().durations[domain.NodeOutputTime(p.node.ID)] = d
}

func (p *pass) SetPoseFwd(pose domain.Pose) {
	src := domain.NodeOutputTime(p.node.ID)
	c := p.cache()
	c.poses[src] = pose
	c.times[src] = pose.Timestamp
}

func (p *pass) SetTimeUpdateFwd(u domain.TimeUpdate) {
	p.cache().updates[domain.NodeOutputTime(p.node.ID)] = u
}

func (p *pass) State() graph.StateSlot {
	s := &slot{ec: p.ec, node: p.node.ID}
	if p.temp {
		s.shadow = p.cache()
	}
	return s
}

func (p *pass) Nested(g *graph.Graph, state domain.StateID, opts ...graph.NestedOption) graph.Nested {
	cfg := graph.NestedConfig{Scope: p.ec.scope}
	for _, opt := range opts {
		opt(&cfg)
	}
	child := p.in.arena.Child(p.ec.ID, p.node.ID, state, g)
	child.overlay = cfg.Overlay
	child.scope = cfg.Scope
	return &nested{in: p.in, ec: child, temp: p.temp}
}

func (p *pass) Scope() graph.MachineScope { return p.ec.scope }

// slot is the node-local state slot of one node in one context. While
// previewing, writes land in the temp cache and committed state is read-only.
type slot struct {
	ec     *EvalContext
	node   domain.NodeID
	shadow *Cache
}

func (s *slot) Load() (any, bool, bool) {
	if s.shadow != nil {
		if v, ok := s.shadow.states[s.node]; ok {
			return v, true, true
		}
		v, ok := s.ec.states[s.node]
		return v, false, ok
	}
	v, ok := s.ec.states[s.node]
	return v, true, ok
}

func (s *slot) Store(v any) {
	if s.shadow != nil {
		s.shadow.states[s.node] = v
		return
	}
	s.ec.states[s.node] = v
}

// nested evaluates a graph owned by a node in the child context chosen by the arena.
type nested struct {
	in   *Instance
	ec   *EvalContext
	temp bool
}

func (n *nested) DataOut(pin domain.PinID) (domain.Value, error) {
	return n.in.data(n.ec, domain.GraphOutputData(pin), n.temp)
}

func (n *nested) DurationOut() (domain.Duration, error) {
	return n.in.duration(n.ec, domain.GraphOutputTime(), n.temp)
}

func (n *nested) PoseOut(update domain.TimeUpdate) (domain.Pose, error) {
	return n.in.pose(n.ec, domain.GraphOutputTime(), update, n.temp)
}

func (n *nested) TimeUpdateOut() (domain.TimeUpdate, error) {
	return n.in.timeUpdate(n.ec, domain.GraphOutputTime(), n.temp)
}

func (n *nested) Update() error {
	return n.in.update(n.ec, n.temp)
}
