package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourcePin(t *testing.T) {
	tests := []struct {
		in      string
		want    SourcePin
		wantErr bool
	}{
		{in: "@in.data.speed", want: GraphInputData("speed")},
		{in: "@in.time.base", want: GraphInputTime("base")},
		{in: "walk.data.phase", want: NodeOutputData("walk", "phase")},
		{in: "walk.time", want: NodeOutputTime("walk")},
		{in: "walk.data.left.foot", want: NodeOutputData("walk", "left.foot")},
		{in: "walk.time.extra", wantErr: true},
		{in: "@out.data.x", wantErr: true},
		{in: "walk.pose", wantErr: true},
		{in: "walk", wantErr: true},
		{in: ".data.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSourcePin(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseTargetPin(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetPin
		wantErr bool
	}{
		{in: "@out.data.events", want: GraphOutputData("events")},
		{in: "@out.time", want: GraphOutputTime()},
		{in: "blend.data.factor", want: NodeInputData("blend", "factor")},
		{in: "blend.time.a", want: NodeInputTime("blend", "a")},
		{in: "blend.time", wantErr: true},
		{in: "@in.time.base", wantErr: true},
		{in: "@out.time.extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargetPin(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestPinKinds(t *testing.T) {
	assert.True(t, NodeOutputTime("a").IsTime())
	assert.True(t, GraphInputTime("a").IsBoundary())
	assert.False(t, NodeOutputData("a", "x").IsTime())
	assert.True(t, GraphOutputTime().IsTime())
	assert.False(t, NodeInputData("a", "x").IsBoundary())

	assert.True(t, ValidNodeID("walk_1"))
	assert.False(t, ValidNodeID("walk.1"))
	assert.False(t, ValidNodeID("@in"))
	assert.False(t, ValidNodeID(""))
}

func TestTimeSpec_Compatible(t *testing.T) {
	anySpace := TimeSpec{}
	local := TimeSpec{Space: SpaceLocal}
	character := TimeSpec{Space: SpaceCharacter}

	assert.True(t, anySpace.Compatible(local))
	assert.True(t, character.Compatible(anySpace))
	assert.True(t, local.Compatible(local))
	assert.False(t, local.Compatible(character))
}

func TestValueFrom(t *testing.T) {
	v, err := ValueFrom(TypeFloat, 2)
	require.NoError(t, err)
	assert.Equal(t, Float(2), v)

	v, err = ValueFrom(TypeVec3, []any{1, 2.5, 3})
	require.NoError(t, err)
	assert.Equal(t, Vec3{1, 2.5, 3}, v)

	_, err = ValueFrom(TypeInt, 1.5)
	assert.Error(t, err)

	_, err = ValueFrom(TypeBool, "yes")
	assert.Error(t, err)

	v, err = ValueFrom(TypeEventQueue, []any{"jump", "land"})
	require.NoError(t, err)
	assert.Equal(t, EventQueue{Named("jump"), Named("land")}, v)

	_, err = ValueFrom(TypeEventQueue, []any{1})
	assert.Error(t, err)
}
