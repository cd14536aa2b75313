package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/sinew/internal/runtime"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incrementGraph outputs its input x plus one.
func incrementGraph(t *testing.T, def domain.Value) *graph.Graph {
	t.Helper()
	g := graph.New("increment")
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, def))
	require.NoError(t, g.AddNode(graph.Node{ID: "one", Capability: &nodes.Constant{Value: domain.Float(1)}}))
	require.NoError(t, g.AddNode(graph.Node{ID: "add", Capability: &nodes.Arithmetic{Op: "add"}}))
	g.AddOutputData("y", domain.TypeFloat)
	g.AddEdge(domain.GraphInputData("x"), domain.NodeInputData("add", nodes.PinA))
	g.AddEdge(domain.NodeOutputData("one", nodes.PinValue), domain.NodeInputData("add", nodes.PinB))
	g.AddEdge(domain.NodeOutputData("add", nodes.PinValue), domain.GraphOutputData("y"))
	return g
}

func TestNested_ParentDelegation(t *testing.T) {
	inner := incrementGraph(t, nil)

	outer := graph.New("outer")
	require.NoError(t, outer.AddNode(graph.Node{ID: "answer", Capability: &nodes.Constant{Value: domain.Float(41)}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "sub", Kind: nodes.KindGraph, Capability: &nodes.Subgraph{Graph: inner}}))
	outer.AddOutputData("y", domain.TypeFloat)
	outer.AddEdge(domain.NodeOutputData("answer", nodes.PinValue), domain.NodeInputData("sub", "x"))
	outer.AddEdge(domain.NodeOutputData("sub", "y"), domain.GraphOutputData("y"))
	require.Empty(t, outer.ValidateEdges())

	in := runtime.New(outer)
	in.BeginFrame(domain.Delta(frameDt))
	v, err := in.Data(context.Background(), "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(42), v)
	assert.Equal(t, 2, in.Arena().Len())
}

func TestNested_DefaultWhenParentUnconnected(t *testing.T) {
	outer := graph.New("outer")
	require.NoError(t, outer.AddNode(graph.Node{ID: "sub", Capability: &nodes.Subgraph{Graph: incrementGraph(t, domain.Float(9))}}))
	outer.AddOutputData("y", domain.TypeFloat)
	outer.AddEdge(domain.NodeOutputData("sub", "y"), domain.GraphOutputData("y"))

	in := runtime.New(outer)
	in.BeginFrame(domain.Delta(frameDt))
	v, err := in.Data(context.Background(), "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(10), v)

	noDefault := graph.New("outer")
	require.NoError(t, noDefault.AddNode(graph.Node{ID: "sub", Capability: &nodes.Subgraph{Graph: incrementGraph(t, nil)}}))
	noDefault.AddOutputData("y", domain.TypeFloat)
	noDefault.AddEdge(domain.NodeOutputData("sub", "y"), domain.GraphOutputData("y"))

	in = runtime.New(noDefault)
	in.BeginFrame(domain.Delta(frameDt))
	_, err = in.Data(context.Background(), "y")
	assert.ErrorIs(t, err, domain.ErrMissingInputEdge)
}

func TestNested_UnconnectedOutputOnlyFailsWhenQueried(t *testing.T) {
	inner := incrementGraph(t, nil)
	inner.AddOutputData("unused", domain.TypeFloat)

	outer := graph.New("outer")
	require.NoError(t, outer.AddInputData("x", domain.TypeFloat, domain.Float(1)))
	require.NoError(t, outer.AddNode(graph.Node{ID: "sub", Capability: &nodes.Subgraph{Graph: inner}}))
	outer.AddOutputData("y", domain.TypeFloat)
	outer.AddOutputData("unused", domain.TypeFloat)
	outer.AddEdge(domain.GraphInputData("x"), domain.NodeInputData("sub", "x"))
	outer.AddEdge(domain.NodeOutputData("sub", "y"), domain.GraphOutputData("y"))
	outer.AddEdge(domain.NodeOutputData("sub", "unused"), domain.GraphOutputData("unused"))

	in := runtime.New(outer)
	in.BeginFrame(domain.Delta(frameDt))
	ctx := context.Background()

	v, err := in.Data(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(2), v)

	_, err = in.Data(ctx, "unused")
	assert.ErrorIs(t, err, domain.ErrMissingOutput)
}

func TestNested_SetInputReachesChildContexts(t *testing.T) {
	outer := graph.New("outer")
	require.NoError(t, outer.AddInputData("x", domain.TypeFloat, domain.Float(1)))
	require.NoError(t, outer.AddNode(graph.Node{ID: "sub", Capability: &nodes.Subgraph{Graph: incrementGraph(t, nil)}}))
	outer.AddOutputData("y", domain.TypeFloat)
	outer.AddEdge(domain.GraphInputData("x"), domain.NodeInputData("sub", "x"))
	outer.AddEdge(domain.NodeOutputData("sub", "y"), domain.GraphOutputData("y"))
	require.Empty(t, outer.ValidateEdges())

	in := runtime.New(outer)
	in.BeginFrame(domain.Delta(frameDt))
	ctx := context.Background()

	v, err := in.Data(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(2), v)

	in.SetInput("x", domain.Float(10))
	v, err = in.Data(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Float(11), v)
}

func TestNested_IndependentMemoryPerOwner(t *testing.T) {
	inner := clipGraph(t, 10)

	outer := graph.New("outer")
	require.NoError(t, outer.AddNode(graph.Node{ID: "slow", Capability: &nodes.Subgraph{Graph: inner}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "fast", Capability: &nodes.Subgraph{Graph: inner}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "speed", Capability: nodes.Speed{}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "blend", Capability: nodes.Blend{}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "two", Capability: &nodes.Constant{Value: domain.Float(2)}}))
	require.NoError(t, outer.AddNode(graph.Node{ID: "half", Capability: &nodes.Constant{Value: domain.Float(0.5)}}))
	outer.SetOutputTime(domain.TimeSpec{})
	outer.AddEdge(domain.NodeOutputTime("fast"), domain.NodeInputTime("speed", nodes.PinPose))
	outer.AddEdge(domain.NodeOutputData("two", nodes.PinValue), domain.NodeInputData("speed", nodes.PinFactor))
	outer.AddEdge(domain.NodeOutputTime("slow"), domain.NodeInputTime("blend", nodes.PinA))
	outer.AddEdge(domain.NodeOutputTime("speed"), domain.NodeInputTime("blend", nodes.PinB))
	outer.AddEdge(domain.NodeOutputData("half", nodes.PinValue), domain.NodeInputData("blend", nodes.PinFactor))
	outer.AddEdge(domain.NodeOutputTime("blend"), domain.GraphOutputTime())
	require.Empty(t, outer.ValidateEdges())

	in := runtime.New(outer)
	ctx := context.Background()
	for range 2 {
		_, err := in.Step(ctx, domain.Delta(0.5))
		require.NoError(t, err)
	}

	require.Equal(t, 3, in.Arena().Len())
	times := map[domain.NodeID]float64{}
	in.Arena().Each(func(c *runtime.EvalContext) {
		if c.IsRoot() {
			return
		}
		ts, ok := c.Primary().Time(domain.NodeOutputTime("clip"))
		require.True(t, ok)
		times[c.Owner] = ts
	})
	assert.Equal(t, 1.0, times["slow"])
	assert.Equal(t, 2.0, times["fast"])
}

func TestNested_TimeInputDelegation(t *testing.T) {
	passthrough := graph.New("passthrough")
	passthrough.AddInputTime("base", domain.TimeSpec{})
	passthrough.SetOutputTime(domain.TimeSpec{})
	passthrough.AddEdge(domain.GraphInputTime("base"), domain.GraphOutputTime())

	outer := clipGraph(t, 10)
	require.NoError(t, outer.AddNode(graph.Node{ID: "wrap", Capability: &nodes.Subgraph{Graph: passthrough}}))
	outer.AddEdge(domain.NodeOutputTime("clip"), domain.NodeInputTime("wrap", "base"))
	outer.AddEdge(domain.NodeOutputTime("wrap"), domain.GraphOutputTime())
	require.Empty(t, outer.ValidateEdges())

	in := runtime.New(outer)
	p, err := in.Step(context.Background(), domain.Delta(0.25))
	require.NoError(t, err)
	assert.Equal(t, 0.25, p.Timestamp)

	d, err := in.Duration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Seconds(10), d)
}

func TestPreview_LeavesTimelineUntouched(t *testing.T) {
	counter := newPassCounter()
	in := runtime.New(clipGraph(t, 10), runtime.WithLifecycleHooks(counter.hooks()))
	ctx := context.Background()

	p, err := in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Timestamp)

	preview, err := in.PreviewPose(ctx, domain.Delta(2))
	require.NoError(t, err)
	assert.Equal(t, 3.0, preview.Timestamp)

	// The committed pose of this frame is still cached.
	p, err = in.Pose(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Timestamp)

	p, err = in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Timestamp)

	// Without invalidation the stale preview is served from the temp cache.
	stale, err := in.PreviewPose(ctx, domain.Delta(2))
	require.NoError(t, err)
	assert.Equal(t, 3.0, stale.Timestamp)

	in.InvalidateTemp(domain.GraphOutputTime())
	fresh, err := in.PreviewPose(ctx, domain.Delta(2))
	require.NoError(t, err)
	assert.Equal(t, 4.0, fresh.Timestamp)

	in.ClearTemp()
	p, err = in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.Timestamp)
}

func TestPreview_PushPop(t *testing.T) {
	in := runtime.New(clipGraph(t, 10))
	ctx := context.Background()
	_, err := in.Step(ctx, domain.Delta(1))
	require.NoError(t, err)

	outer, err := in.PreviewPose(ctx, domain.Delta(1))
	require.NoError(t, err)
	assert.Equal(t, 2.0, outer.Timestamp)

	in.PushTemp()
	inner, err := in.PreviewPose(ctx, domain.Delta(5))
	require.NoError(t, err)
	assert.Equal(t, 6.0, inner.Timestamp)
	in.PopTemp()

	again, err := in.PreviewPose(ctx, domain.Delta(5))
	require.NoError(t, err)
	assert.Equal(t, 2.0, again.Timestamp, "the base preview survives a pushed level")
}
