package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sinew/internal/runtime"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameDt = 1.0 / 60.0

// passCounter records node passes and cache hits through lifecycle hooks.
type passCounter struct {
	passes map[domain.NodeID]map[domain.PassKind]int
	hits   int
}

func newPassCounter() *passCounter {
	return &passCounter{passes: make(map[domain.NodeID]map[domain.PassKind]int)}
}

func (c *passCounter) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodePass: func(_ context.Context, e *domain.PassEvent) {
			if c.passes[e.NodeID] == nil {
				c.passes[e.NodeID] = make(map[domain.PassKind]int)
			}
			c.passes[e.NodeID][e.Pass]++
		},
		OnCacheHit: func(_ context.Context, e *domain.PassEvent) {
			c.hits++
		},
	}
}

func (c *passCounter) count(node domain.NodeID, pass domain.PassKind) int {
	return c.passes[node][pass]
}

func clipGraph(t *testing.T, seconds float64) *graph.Graph {
	t.Helper()
	g := graph.New("clip")
	clip := &nodes.Clip{Source: nodes.LinearClip{
		Seconds: seconds,
		Tracks:  map[string]nodes.BoneTrack{"root": {To: domain.Vec3{X: 1}}},
	}}
	require.NoError(t, g.AddNode(graph.Node{ID: "clip", Kind: nodes.KindClip, Capability: clip}))
	g.SetOutputTime(domain.TimeSpec{})
	g.AddEdge(domain.NodeOutputTime("clip"), domain.GraphOutputTime())
	require.Empty(t, g.ValidateEdges())
	return g
}

func sumGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("sum")
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, domain.Float(2)))
	require.NoError(t, g.AddNode(graph.Node{ID: "three", Capability: &nodes.Constant{Value: domain.Float(3)}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "add", Capability: &nodes.Arithmetic{Op: "add"}}))
	g.AddOutputData("sum", domain.TypeFloat)
	g.AddEdge(domain.GraphInputData("x"), domain.NodeInputData("add", nodes.PinA))
	g.AddEdge(domain.NodeOutputData("three", nodes.PinValue), domain.NodeInputData("add", nodes.PinB))
	g.AddEdge(domain.NodeOutputData("add", nodes.PinValue), domain.GraphOutputData("sum"))
	require.Empty(t, g.ValidateEdges())
	return g
}

func TestInstance_DataIdempotent(t *testing.T) {
	counter := newPassCounter()
	in := runtime.New(sumGraph(t), runtime.WithLifecycleHooks(counter.hooks()))
	ctx := context.Background()
	in.BeginFrame(domain.Delta(frameDt))

	first, err := in.Data(ctx, "sum")
	require.NoError(t, err)
	second, err := in.Data(ctx, "sum")
	require.NoError(t, err)

	assert.Equal(t, domain.Float(5), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, counter.count("add", domain.PassData))
	assert.Equal(t, 1, counter.count("three", domain.PassData))
	assert.Equal(t, 1, counter.hits)
}

func TestInstance_RootInputs(t *testing.T) {
	ctx := context.Background()

	in := runtime.New(sumGraph(t))
	in.BeginFrame(domain.Delta(frameDt))
	in.SetInput("x", domain.Float(10))
	v, err := in.Data(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(13), v)

	g := sumGraph(t)
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, nil))
	in = runtime.New(g)
	in.BeginFrame(domain.Delta(frameDt))
	_, err = in.Data(ctx, "sum")
	assert.ErrorIs(t, err, domain.ErrMissingParentGraph)

	in = runtime.New(g, runtime.WithInputs(graph.Overlay{Data: map[domain.PinID]domain.Value{"x": domain.Float(1)}}))
	in.BeginFrame(domain.Delta(frameDt))
	v, err = in.Data(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(4), v)
}

func TestInstance_ClipAcrossFrames(t *testing.T) {
	counter := newPassCounter()
	in := runtime.New(clipGraph(t, 10), runtime.WithLifecycleHooks(counter.hooks()))
	ctx := context.Background()

	first, err := in.Step(ctx, domain.Delta(frameDt))
	require.NoError(t, err)
	assert.Equal(t, 1, counter.count("clip", domain.PassPose))

	again, err := in.Pose(ctx, domain.Delta(frameDt))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, counter.count("clip", domain.PassPose))

	second, err := in.Step(ctx, domain.Delta(frameDt))
	require.NoError(t, err)
	assert.Equal(t, 2, counter.count("clip", domain.PassPose))

	assert.Greater(t, second.Timestamp, first.Timestamp)
	assert.InDelta(t, frameDt, second.Timestamp-first.Timestamp, 1e-12)
	assert.InDelta(t, 2*frameDt/10, second.Bones["root"].Translation.X, 1e-9)
}

func TestInstance_SetInputKeepsFramePose(t *testing.T) {
	counter := newPassCounter()
	g := clipGraph(t, 10)
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, domain.Float(0)))
	in := runtime.New(g, runtime.WithLifecycleHooks(counter.hooks()))
	ctx := context.Background()

	first, err := in.Step(ctx, domain.Delta(frameDt))
	require.NoError(t, err)
	in.SetInput("x", domain.Float(1))
	again, err := in.Pose(ctx, domain.Delta(frameDt))
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 1, counter.count("clip", domain.PassPose))
}

func TestInstance_StepWithoutPoseOutput(t *testing.T) {
	in := runtime.New(sumGraph(t))
	ctx := context.Background()

	p, err := in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Empty(t, p.Bones)
	assert.Equal(t, uint64(1), in.Frame())

	v, err := in.Data(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(5), v)
}

func TestInstance_AbsoluteUpdate(t *testing.T) {
	in := runtime.New(clipGraph(t, 10))
	ctx := context.Background()

	_, err := in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)
	p, err := in.Step(ctx, domain.Absolute(4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.Timestamp)
	p, err = in.Step(ctx, domain.Delta(0.5))
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.Timestamp)
}

func TestInstance_MissingEdge(t *testing.T) {
	g := graph.New("empty")
	g.AddOutputData("x", domain.TypeFloat)
	in := runtime.New(g)
	in.BeginFrame(domain.Delta(frameDt))

	_, err := in.Data(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrMissingInputEdge)

	var missing *domain.MissingInputError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, domain.GraphOutputData("x"), missing.Target)
}

func TestInstance_KindMismatch(t *testing.T) {
	g := clipGraph(t, 1)
	g.AddOutputData("x", domain.TypeFloat)
	g.AddEdge(domain.NodeOutputTime("clip"), domain.GraphOutputData("x"))

	in := runtime.New(g)
	in.BeginFrame(domain.Delta(frameDt))
	_, err := in.Data(context.Background(), "x")

	var mismatch *domain.KindMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.ErrorIs(t, err, domain.ErrKindMismatch)
}

func TestInstance_CycleIsReported(t *testing.T) {
	g := graph.New("loop")
	require.NoError(t, g.AddNode(graph.Node{ID: "one", Capability: &nodes.Constant{Value: domain.Float(1)}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "a", Capability: &nodes.Arithmetic{Op: "add"}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b", Capability: &nodes.Arithmetic{Op: "add"}}))
	g.AddOutputData("out", domain.TypeFloat)
	g.AddEdge(domain.NodeOutputData("one", nodes.PinValue), domain.NodeInputData("a", nodes.PinA))
	g.AddEdge(domain.NodeOutputData("b", nodes.PinValue), domain.NodeInputData("a", nodes.PinB))
	g.AddEdge(domain.NodeOutputData("one", nodes.PinValue), domain.NodeInputData("b", nodes.PinA))
	g.AddEdge(domain.NodeOutputData("a", nodes.PinValue), domain.NodeInputData("b", nodes.PinB))
	g.AddEdge(domain.NodeOutputData("a", nodes.PinValue), domain.GraphOutputData("out"))

	in := runtime.New(g)
	in.BeginFrame(domain.Delta(frameDt))
	_, err := in.Data(context.Background(), "out")
	require.ErrorIs(t, err, domain.ErrCyclicDependency)

	var cycle *domain.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, domain.GraphOutputData("out"), cycle.Path[0])
	assert.Len(t, cycle.Path, 3)

	_, err = in.Data(context.Background(), "out")
	assert.ErrorIs(t, err, domain.ErrCyclicDependency, "guard state must be released after a failure")
}

func TestInstance_DurationAndSpeed(t *testing.T) {
	g := clipGraph(t, 2)
	require.NoError(t, g.AddNode(graph.Node{ID: "two", Capability: &nodes.Constant{Value: domain.Float(2)}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "speed", Capability: nodes.Speed{}}))
	g.AddEdge(domain.NodeOutputTime("clip"), domain.NodeInputTime("speed", nodes.PinPose))
	g.AddEdge(domain.NodeOutputData("two", nodes.PinValue), domain.NodeInputData("speed", nodes.PinFactor))
	g.AddEdge(domain.NodeOutputTime("speed"), domain.GraphOutputTime())
	require.Empty(t, g.ValidateEdges())

	in := runtime.New(g)
	ctx := context.Background()

	p, err := in.Step(ctx, domain.Delta(0.25))
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Timestamp)

	d, err := in.Duration(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Seconds(1), d)

	u, err := in.TimeUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Delta(0.5), u)
}

func TestInstance_TimeUpdateFallsBackToDrivenUpdate(t *testing.T) {
	in := runtime.New(clipGraph(t, 2))
	ctx := context.Background()
	in.BeginFrame(domain.Delta(frameDt))

	_, err := in.TimeUpdate(ctx)
	assert.ErrorIs(t, err, domain.ErrPassNotSupported)

	_, err = in.Pose(ctx, domain.Delta(frameDt))
	require.NoError(t, err)
	u, err := in.TimeUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Delta(frameDt), u)
}

type tickNode struct{ ticks int }

func (n *tickNode) Spec() graph.NodeSpec { return graph.NodeSpec{} }

func (n *tickNode) Update(ctx graph.PassContext) error {
	n.ticks++
	return nil
}

func TestInstance_UpdateRunsWithoutConsumers(t *testing.T) {
	g := clipGraph(t, 1)
	tick := &tickNode{}
	require.NoError(t, g.AddNode(graph.Node{ID: "tick", Capability: tick}))

	in := runtime.New(g)
	for range 3 {
		_, err := in.Step(context.Background(), domain.Delta(frameDt))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, tick.ticks)
	assert.Equal(t, uint64(3), in.Frame())
}

type wrongState struct{}

func (wrongState) Spec() graph.NodeSpec {
	return graph.NodeSpec{DataOutputs: graph.NewDataSpec(graph.DataPin{ID: "v", Type: domain.TypeInt})}
}

func (wrongState) Data(ctx graph.PassContext) error {
	ctx.State().Store("not an int")
	_, err := graph.LocalState(ctx, func() int { return 0 })
	return err
}

func TestLocalState_TypeMismatch(t *testing.T) {
	g := graph.New("state")
	require.NoError(t, g.AddNode(graph.Node{ID: "n", Capability: wrongState{}}))
	g.AddOutputData("v", domain.TypeInt)
	g.AddEdge(domain.NodeOutputData("n", "v"), domain.GraphOutputData("v"))

	in := runtime.New(g)
	in.BeginFrame(domain.Delta(frameDt))
	_, err := in.Data(context.Background(), "v")
	assert.ErrorIs(t, err, domain.ErrStateTypeMismatch)
}
