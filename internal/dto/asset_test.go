package dto

import (
	"testing"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/dsl"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeGraph(t *testing.T) {
	b := dsl.New("walk")
	b.Input("speed", domain.TypeFloat, domain.Float(2))
	b.Add("clip", &nodes.Clip{Source: nodes.LinearClip{Seconds: 1}}).Kind(nodes.KindClip).At(1, 2)
	b.Add("fast", nodes.Speed{}).
		In(string(nodes.PinPose), "clip.time").
		In(string(nodes.PinFactor), "@in.data.speed")
	b.PoseOutput("fast.time")
	g, err := b.Build()
	require.NoError(t, err)

	info := DescribeGraph(g)
	assert.Equal(t, "walk", info.Name)
	assert.Equal(t, []Pin{{ID: "speed", Type: "float", Default: 2.0}}, info.Inputs)
	require.NotNil(t, info.Pose)
	require.Len(t, info.Nodes, 2)
	assert.Equal(t, "clip", info.Nodes[0].ID)
	assert.Equal(t, &graph.Position{X: 1, Y: 2}, info.Nodes[0].Position)
	assert.Equal(t, []Pin{{ID: "loops", Type: "int"}}, info.Nodes[0].DataOutputs)
	assert.Equal(t, []Edge{
		{Source: "fast.time", Target: "@out.time"},
		{Source: "@in.data.speed", Target: "fast.data.factor"},
		{Source: "clip.time", Target: "fast.time.pose"},
	}, info.Edges)
}

func TestValueJSON(t *testing.T) {
	assert.Equal(t, 1.5, ValueJSON(domain.Float(1.5)))
	assert.Equal(t, []float64{1, 2, 3}, ValueJSON(domain.Vec3{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, []string{"jump"}, ValueJSON(domain.EventQueue{domain.Named("jump")}))
	assert.Nil(t, ValueJSON(nil))
}
