package runtime

import (
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// ContextID indexes an EvalContext inside its Arena. The root context is 0.
type ContextID int

// RootContext is the id of the context evaluating the instance's top graph.
const RootContext ContextID = 0

// EvalContext is the memory of one graph invocation: the top graph, a subgraph
// owned by a node, or one state of a state machine.
type EvalContext struct {
	ID     ContextID
	Graph  *graph.Graph
	Parent ContextID
	// Owner is the node of the parent graph owning this context. Empty for the root.
	Owner domain.NodeID
	State domain.StateID

	primary *Cache
	temps   []*Cache
	states  map[domain.NodeID]any
	frame   uint64

	overlay graph.Overlay
	scope   graph.MachineScope
}

func newEvalContext(id ContextID, g *graph.Graph) *EvalContext {
	return &EvalContext{
		ID:      id,
		Graph:   g,
		primary: NewCache(),
		states:  make(map[domain.NodeID]any),
	}
}

// IsRoot reports whether the context has no parent.
func (c *EvalContext) IsRoot() bool { return c.ID == RootContext }

// Primary returns the cache that persists across frames.
func (c *EvalContext) Primary() *Cache { return c.primary }

// touch flushes per-frame results the first time the context is used in a frame.
func (c *EvalContext) touch(frame uint64) {
	if c.frame == frame {
		return
	}
	c.frame = frame
	c.primary.Flush()
}

// temp returns the temp cache at depth (1-based), growing the stack as needed.
func (c *EvalContext) temp(depth int) *Cache {
	if depth < 1 {
		depth = 1
	}
	for len(c.temps) < depth {
		c.temps = append(c.temps, NewCache())
	}
	return c.temps[depth-1]
}

// truncateTemps drops temp caches deeper than depth.
func (c *EvalContext) truncateTemps(depth int) {
	if depth < 0 {
		depth = 0
	}
	if len(c.temps) > depth {
		c.temps = c.temps[:depth]
	}
}

func (c *EvalContext) reset(g *graph.Graph) {
	c.Graph = g
	c.primary = NewCache()
	c.temps = nil
	c.states = make(map[domain.NodeID]any)
}

type arenaKey struct {
	parent ContextID
	node   domain.NodeID
	state  domain.StateID
}

// Arena owns every EvalContext of an instance. Children are keyed by
// (parent context, owning node, state) and live as long as the instance.
type Arena struct {
	contexts []*EvalContext
	index    map[arenaKey]ContextID
}

// NewArena creates an arena whose root context evaluates root.
func NewArena(root *graph.Graph) *Arena {
	return &Arena{
		contexts: []*EvalContext{newEvalContext(RootContext, root)},
		index:    make(map[arenaKey]ContextID),
	}
}

// Root returns the root context.
func (a *Arena) Root() *EvalContext { return a.contexts[RootContext] }

// Get returns the context with the given id.
func (a *Arena) Get(id ContextID) (*EvalContext, bool) {
	if id < 0 || int(id) >= len(a.contexts) {
		return nil, false
	}
	return a.contexts[id], true
}

// Len returns the number of contexts, root included.
func (a *Arena) Len() int { return len(a.contexts) }

// Child returns the context for (parent, node, state), creating it on first
// access. A context whose graph was swapped is reset.
func (a *Arena) Child(parent ContextID, node domain.NodeID, state domain.StateID, g *graph.Graph) *EvalContext {
	key := arenaKey{parent: parent, node: node, state: state}
	if id, ok := a.index[key]; ok {
		c := a.contexts[id]
		if c.Graph != g {
			c.reset(g)
		}
		return c
	}
	id := ContextID(len(a.contexts))
	c := newEvalContext(id, g)
	c.Parent = parent
	c.Owner = node
	c.State = state
	a.contexts = append(a.contexts, c)
	a.index[key] = id
	return c
}

// ChildrenOf lists the contexts owned by node inside parent.
func (a *Arena) ChildrenOf(parent ContextID, node domain.NodeID) []*EvalContext {
	var out []*EvalContext
	for key, id := range a.index {
		if key.parent == parent && key.node == node {
			out = append(out, a.contexts[id])
		}
	}
	return out
}

// Each calls fn for every context in creation order.
func (a *Arena) Each(fn func(*EvalContext)) {
	for _, c := range a.contexts {
		fn(c)
	}
}

// Subtree calls fn for c and every context nested below it.
func (a *Arena) Subtree(c *EvalContext, fn func(*EvalContext)) {
	fn(c)
	for key, id := range a.index {
		if key.parent == c.ID {
			a.Subtree(a.contexts[id], fn)
		}
	}
}
