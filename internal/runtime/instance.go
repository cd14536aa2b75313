package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/sinew/internal/logging"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/google/uuid"
)

// Instance evaluates one graph for one animated subject. It owns its arena
// exclusively: instances share no mutable state and may run on separate
// goroutines, but a single Instance must not be used concurrently.
type Instance struct {
	id     string
	graph  *graph.Graph
	arena  *Arena
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	frame       uint64
	frameUpdate domain.TimeUpdate
	tempDepth   int

	// goctx is the context of the call currently running. Set per public call.
	goctx context.Context

	inflight map[guardKey]bool
	path     []domain.TargetPin
}

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the structured logger used for pass tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Instance) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(in *Instance) {
		in.hooks = hooks
	}
}

// WithID overrides the generated instance id.
func WithID(id string) Option {
	return func(in *Instance) {
		in.id = id
	}
}

// WithInputs sets the overlay used for the top graph inputs.
func WithInputs(o graph.Overlay) Option {
	return func(in *Instance) {
		in.arena.Root().overlay = o
	}
}

// New creates an instance evaluating g.
func New(g *graph.Graph, opts ...Option) *Instance {
	in := &Instance{
		id:       uuid.NewString(),
		graph:    g,
		arena:    NewArena(g),
		logger:   logging.NewNop(),
		goctx:    context.Background(),
		inflight: make(map[guardKey]bool),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With("instance", in.id, "graph", g.Name)
	return in
}

// ID returns the instance id.
func (in *Instance) ID() string { return in.id }

// Graph returns the top graph.
func (in *Instance) Graph() *graph.Graph { return in.graph }

// Frame returns the current frame number. Zero before the first BeginFrame.
func (in *Instance) Frame() uint64 { return in.frame }

// Arena exposes the context arena for inspection.
func (in *Instance) Arena() *Arena { return in.arena }

// SetInput sets one data input of the top graph, overriding its default.
// Data results of the current frame are dropped in every context. Poses
// already resolved this frame are kept and see the new value next frame.
func (in *Instance) SetInput(pin domain.PinID, v domain.Value) {
	root := in.arena.Root()
	if root.overlay.Data == nil {
		root.overlay.Data = make(map[domain.PinID]domain.Value)
	}
	root.overlay.Data[pin] = v
	in.flushData()
}

// SetInputs replaces the top graph overlay, with the same cache rules as SetInput.
func (in *Instance) SetInputs(o graph.Overlay) {
	in.arena.Root().overlay = o
	in.flushData()
}

func (in *Instance) flushData() {
	in.arena.Each(func(c *EvalContext) {
		c.primary.FlushData()
		for _, t := range c.temps {
			t.FlushData()
		}
	})
}

// BeginFrame starts a new frame: per-frame results of every context are
// discarded on next access, timestamps are kept.
func (in *Instance) BeginFrame(update domain.TimeUpdate) {
	in.frame++
	in.frameUpdate = update
	in.arena.Root().touch(in.frame)
}

// Update runs the update pass of every node of the top graph.
func (in *Instance) Update(ctx context.Context) error {
	defer in.bind(ctx)()
	return in.update(in.arena.Root(), false)
}

// Step runs a complete frame: BeginFrame, the update pass and the pose query.
// A graph without a time output yields the zero pose.
func (in *Instance) Step(ctx context.Context, update domain.TimeUpdate) (domain.Pose, error) {
	in.BeginFrame(update)
	if err := in.Update(ctx); err != nil {
		return domain.Pose{}, err
	}
	if _, ok := in.graph.OutputTime(); !ok {
		return domain.Pose{}, nil
	}
	return in.Pose(ctx, update)
}

// Pose resolves the pose output of the top graph.
func (in *Instance) Pose(ctx context.Context, update domain.TimeUpdate) (domain.Pose, error) {
	defer in.bind(ctx)()
	return in.pose(in.arena.Root(), domain.GraphOutputTime(), update, false)
}

// Data resolves a data output of the top graph.
func (in *Instance) Data(ctx context.Context, pin domain.PinID) (domain.Value, error) {
	defer in.bind(ctx)()
	return in.data(in.arena.Root(), domain.GraphOutputData(pin), false)
}

// Duration resolves the duration of the top graph pose output.
func (in *Instance) Duration(ctx context.Context) (domain.Duration, error) {
	defer in.bind(ctx)()
	return in.duration(in.arena.Root(), domain.GraphOutputTime(), false)
}

// TimeUpdate resolves the time update forwarded to the top graph pose output.
func (in *Instance) TimeUpdate(ctx context.Context) (domain.TimeUpdate, error) {
	defer in.bind(ctx)()
	return in.timeUpdate(in.arena.Root(), domain.GraphOutputTime(), false)
}

// PreviewPose resolves the pose output against the temp cache. The primary
// cache, timestamps and committed node state are left untouched.
func (in *Instance) PreviewPose(ctx context.Context, update domain.TimeUpdate) (domain.Pose, error) {
	defer in.bind(ctx)()
	return in.pose(in.arena.Root(), domain.GraphOutputTime(), update, true)
}

// PreviewData resolves a data output against the temp cache.
func (in *Instance) PreviewData(ctx context.Context, pin domain.PinID) (domain.Value, error) {
	defer in.bind(ctx)()
	return in.data(in.arena.Root(), domain.GraphOutputData(pin), true)
}

// PushTemp opens a fresh temp cache level on top of the current one.
func (in *Instance) PushTemp() {
	in.tempDepth++
	keep := in.tempLevel() - 1
	in.arena.Each(func(c *EvalContext) { c.truncateTemps(keep) })
}

// PopTemp discards the innermost temp cache level. The base level is only
// dropped by ClearTemp.
func (in *Instance) PopTemp() {
	if in.tempDepth == 0 {
		return
	}
	in.tempDepth--
	keep := in.tempLevel()
	in.arena.Each(func(c *EvalContext) { c.truncateTemps(keep) })
}

// ClearTemp discards every temp cache of every context.
func (in *Instance) ClearTemp() {
	in.tempDepth = 0
	in.arena.Each(func(c *EvalContext) { c.truncateTemps(0) })
}

// InvalidateTemp forgets the temp result for target's source and, recursively,
// for every input of the node owning it, including the contexts it owns.
func (in *Instance) InvalidateTemp(target domain.TargetPin) {
	in.invalidateTemp(in.arena.Root(), target, make(map[domain.SourcePin]bool))
}

func (in *Instance) invalidateTemp(ec *EvalContext, target domain.TargetPin, seen map[domain.SourcePin]bool) {
	src, ok := ec.Graph.SourceOf(target)
	if !ok || seen[src] {
		return
	}
	seen[src] = true
	level := in.tempLevel()
	ec.temp(level).Forget(src)
	if src.IsBoundary() {
		return
	}
	node, ok := ec.Graph.Node(src.Node)
	if !ok {
		return
	}
	for _, child := range in.arena.ChildrenOf(ec.ID, src.Node) {
		in.arena.Subtree(child, func(c *EvalContext) { c.truncateTemps(level - 1) })
	}
	spec := node.Capability.Spec()
	for _, p := range graph.DataPins(spec.DataInputs) {
		in.invalidateTemp(ec, domain.NodeInputData(src.Node, p.ID), seen)
	}
	for _, p := range graph.TimePins(spec.TimeInputs) {
		in.invalidateTemp(ec, domain.NodeInputTime(src.Node, p.ID), seen)
	}
}

// tempLevel is the 1-based temp cache level used by preview queries.
func (in *Instance) tempLevel() int {
	return in.tempDepth + 1
}

// bind makes ctx visible to hooks fired during the call.
func (in *Instance) bind(ctx context.Context) func() {
	prev := in.goctx
	if ctx != nil {
		in.goctx = ctx
	}
	return func() { in.goctx = prev }
}

func (in *Instance) eventBase() domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Instance:  in.id,
		Frame:     in.frame,
	}
}

func (in *Instance) firePass(ec *EvalContext, node domain.NodeID, pass domain.PassKind, temp bool) {
	if in.hooks.OnNodePass == nil {
		return
	}
	in.hooks.OnNodePass(in.goctx, &domain.PassEvent{
		EventBase: in.eventBase(),
		Graph:     ec.Graph.Name,
		NodeID:    node,
		Pass:      pass,
		Context:   int(ec.ID),
		Temp:      temp,
	})
}

func (in *Instance) fireHit(ec *EvalContext, src domain.SourcePin, pass domain.PassKind, temp bool) {
	if in.hooks.OnCacheHit == nil {
		return
	}
	in.hooks.OnCacheHit(in.goctx, &domain.PassEvent{
		EventBase: in.eventBase(),
		Graph:     ec.Graph.Name,
		NodeID:    src.Node,
		Pass:      pass,
		Context:   int(ec.ID),
		Temp:      temp,
	})
}
