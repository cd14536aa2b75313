package graph

import (
	"errors"
	"testing"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCap struct{ spec NodeSpec }

func (s stubCap) Spec() NodeSpec { return s.spec }

func floatNode() stubCap {
	return stubCap{spec: NodeSpec{
		DataInputs:  NewDataSpec(DataPin{ID: "in", Type: domain.TypeFloat}),
		DataOutputs: NewDataSpec(DataPin{ID: "out", Type: domain.TypeFloat}),
	}}
}

func poseNode() stubCap {
	out := domain.TimeSpec{}
	return stubCap{spec: NodeSpec{
		TimeInputs: NewTimeSpecs(TimePin{ID: "pose", Spec: domain.TimeSpec{}}),
		TimeOutput: &out,
	}}
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := New("test")
	require.NoError(t, g.AddNode(Node{ID: "a", Capability: floatNode()}))
	require.NoError(t, g.AddNode(Node{ID: "b", Capability: floatNode()}))
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, domain.Float(1)))
	g.AddOutputData("y", domain.TypeFloat)
	g.AddEdge(domain.GraphInputData("x"), domain.NodeInputData("a", "in"))
	g.AddEdge(domain.NodeOutputData("a", "out"), domain.NodeInputData("b", "in"))
	g.AddEdge(domain.NodeOutputData("b", "out"), domain.GraphOutputData("y"))
	return g
}

func TestAddNode_Rejects(t *testing.T) {
	g := New("g")
	require.NoError(t, g.AddNode(Node{ID: "a", Capability: floatNode()}))

	assert.Error(t, g.AddNode(Node{ID: "a", Capability: floatNode()}), "duplicate")
	assert.Error(t, g.AddNode(Node{ID: "x.y", Capability: floatNode()}), "dotted id")
	assert.Error(t, g.AddNode(Node{ID: "@in", Capability: floatNode()}), "boundary marker")
	assert.Error(t, g.AddNode(Node{ID: "c"}), "no capability")
}

func TestAddEdge_LastWins(t *testing.T) {
	g := newTestGraph(t)
	target := domain.NodeInputData("b", "in")

	sources := []domain.SourcePin{
		domain.GraphInputData("x"),
		domain.NodeOutputData("a", "out"),
		domain.GraphInputData("x"),
	}
	for _, s := range sources {
		g.AddEdge(s, target)
		got, ok := g.SourceOf(target)
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestRenameNode(t *testing.T) {
	g := newTestGraph(t)
	g.Layout["a"] = Position{X: 3, Y: 4}

	require.True(t, g.RenameNode("a", "renamed"))

	for _, e := range g.Edges() {
		assert.NotEqual(t, domain.NodeID("a"), e.Source.Node, "edge %s", e)
		assert.NotEqual(t, domain.NodeID("a"), e.Target.Node, "edge %s", e)
	}

	src, ok := g.SourceOf(domain.NodeInputData("renamed", "in"))
	require.True(t, ok)
	assert.Equal(t, domain.GraphInputData("x"), src)

	src, ok = g.SourceOf(domain.NodeInputData("b", "in"))
	require.True(t, ok)
	assert.Equal(t, domain.NodeOutputData("renamed", "out"), src)

	assert.Equal(t, Position{X: 3, Y: 4}, g.Layout["renamed"])
	assert.Empty(t, g.ValidateEdges())
}

func TestRenameNode_FailsUnchanged(t *testing.T) {
	g := newTestGraph(t)
	before := g.Edges()

	assert.False(t, g.RenameNode("a", "b"), "collision")
	assert.False(t, g.RenameNode("missing", "z"), "absent")
	assert.False(t, g.RenameNode("a", "bad.id"), "invalid")

	assert.Equal(t, before, g.Edges())
	_, ok := g.Node("a")
	assert.True(t, ok)
}

func TestValidateEdges(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		assert.Empty(t, newTestGraph(t).ValidateEdges())
	})

	t.Run("type mismatch", func(t *testing.T) {
		g := newTestGraph(t)
		require.NoError(t, g.AddInputData("flag", domain.TypeBool, nil))
		g.AddEdge(domain.GraphInputData("flag"), domain.NodeInputData("a", "in"))

		illegal := g.ValidateEdges()
		require.Len(t, illegal, 1)
		assert.Equal(t, domain.NodeInputData("a", "in"), illegal[0].Target)
	})

	t.Run("dangling after node removal", func(t *testing.T) {
		g := newTestGraph(t)
		require.True(t, g.RemoveNode("b"))

		illegal := g.ValidateEdges()
		assert.Len(t, illegal, 2)
	})

	t.Run("dangling boundary", func(t *testing.T) {
		g := newTestGraph(t)
		g.RemoveOutputData("y")

		illegal := g.ValidateEdges()
		require.Len(t, illegal, 1)
		assert.Equal(t, domain.GraphOutputData("y"), illegal[0].Target)
	})

	t.Run("time source consumed twice", func(t *testing.T) {
		g := New("poses")
		require.NoError(t, g.AddNode(Node{ID: "clip", Capability: poseNode()}))
		require.NoError(t, g.AddNode(Node{ID: "m1", Capability: poseNode()}))
		require.NoError(t, g.AddNode(Node{ID: "m2", Capability: poseNode()}))
		g.AddEdge(domain.NodeOutputTime("clip"), domain.NodeInputTime("m1", "pose"))
		g.AddEdge(domain.NodeOutputTime("clip"), domain.NodeInputTime("m2", "pose"))

		illegal := g.ValidateEdges()
		require.Len(t, illegal, 1)
		assert.Equal(t, domain.NodeInputTime("m2", "pose"), illegal[0].Target)
	})

	t.Run("pose data source consumed twice", func(t *testing.T) {
		g := New("snapshots")
		require.NoError(t, g.AddInputData("snap", domain.TypePose, nil))
		g.AddOutputData("a", domain.TypePose)
		g.AddOutputData("b", domain.TypePose)
		g.AddEdge(domain.GraphInputData("snap"), domain.GraphOutputData("a"))
		g.AddEdge(domain.GraphInputData("snap"), domain.GraphOutputData("b"))

		illegal := g.ValidateEdges()
		require.Len(t, illegal, 1)
		assert.Equal(t, domain.GraphOutputData("b"), illegal[0].Target)

		g.AddOutputData("c", domain.TypePose)
		assert.ErrorIs(t, g.CanAddEdge(domain.GraphInputData("snap"), domain.GraphOutputData("c")), ErrIllegalEdge)
	})

	t.Run("time spaces", func(t *testing.T) {
		g := New("spaces")
		g.AddInputTime("local", domain.TimeSpec{Space: domain.SpaceLocal})
		g.SetOutputTime(domain.TimeSpec{Space: domain.SpaceCharacter})
		g.AddEdge(domain.GraphInputTime("local"), domain.GraphOutputTime())
		assert.Len(t, g.ValidateEdges(), 1)

		g.SetOutputTime(domain.TimeSpec{})
		assert.Empty(t, g.ValidateEdges())
	})
}

func TestPrune_Converges(t *testing.T) {
	g := newTestGraph(t)
	require.True(t, g.RemoveNode("a"))
	g.RemoveInputData("x")
	total := len(g.Edges())

	iterations := 0
	for {
		illegal := g.ValidateEdges()
		if len(illegal) == 0 {
			break
		}
		for _, e := range illegal {
			g.RemoveEdge(e.Target)
		}
		iterations++
		require.LessOrEqual(t, iterations, total)
	}
	assert.Empty(t, g.ValidateEdges())

	g2 := newTestGraph(t)
	require.True(t, g2.RemoveNode("b"))
	removed := g2.Prune()
	assert.Len(t, removed, 2)
	assert.Empty(t, g2.ValidateEdges())
}

func TestCanAddEdge(t *testing.T) {
	g := newTestGraph(t)

	t.Run("conflict names existing edge", func(t *testing.T) {
		err := g.CanAddEdge(domain.GraphInputData("x"), domain.NodeInputData("b", "in"))
		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, domain.NodeOutputData("a", "out"), conflict.Existing.Source)
		assert.ErrorIs(t, err, ErrEdgeConflict)

		src, _ := g.SourceOf(domain.NodeInputData("b", "in"))
		assert.Equal(t, domain.NodeOutputData("a", "out"), src, "CanAddEdge must not mutate")
	})

	t.Run("dangling has no remedy", func(t *testing.T) {
		err := g.CanAddEdge(domain.NodeOutputData("ghost", "out"), domain.NodeInputData("b", "in"))
		var edgeErr *EdgeError
		require.True(t, errors.As(err, &edgeErr))
		assert.ErrorIs(t, err, ErrIllegalEdge)
	})

	t.Run("free target", func(t *testing.T) {
		g.AddOutputData("z", domain.TypeFloat)
		assert.NoError(t, g.CanAddEdge(domain.NodeOutputData("a", "out"), domain.GraphOutputData("z")))
	})

	t.Run("mismatch", func(t *testing.T) {
		g.AddOutputData("s", domain.TypeString)
		assert.ErrorIs(t, g.CanAddEdge(domain.NodeOutputData("a", "out"), domain.GraphOutputData("s")), ErrIllegalEdge)
	})
}

func TestBoundarySpec_PreservesOrder(t *testing.T) {
	g := New("io")
	require.NoError(t, g.AddInputData("z", domain.TypeFloat, nil))
	require.NoError(t, g.AddInputData("a", domain.TypeBool, domain.Bool(true)))
	g.AddInputTime("base", domain.TimeSpec{})
	g.SetOutputTime(domain.TimeSpec{})

	spec := g.BoundarySpec()
	pins := DataPins(spec.DataInputs)
	require.Len(t, pins, 2)
	assert.Equal(t, domain.PinID("z"), pins[0].ID)
	assert.Equal(t, domain.PinID("a"), pins[1].ID)
	assert.NotNil(t, spec.TimeOutput)
	assert.Len(t, TimePins(spec.TimeInputs), 1)

	v, ok := g.Default("a")
	require.True(t, ok)
	assert.Equal(t, domain.Bool(true), v)
}

func TestAddInputData_DefaultTypeChecked(t *testing.T) {
	g := New("defaults")
	assert.Error(t, g.AddInputData("x", domain.TypeFloat, domain.Bool(false)))
	require.NoError(t, g.AddInputData("x", domain.TypeFloat, nil))
	assert.Error(t, g.SetDefault("x", domain.Int(2)))
	assert.Error(t, g.SetDefault("nope", domain.Float(2)))
	assert.NoError(t, g.SetDefault("x", domain.Float(2)))
}
