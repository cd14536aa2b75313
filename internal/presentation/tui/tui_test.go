package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/sinew/internal/dto"
	"github.com/stretchr/testify/assert"
)

func TestGraphMarkdown(t *testing.T) {
	md := GraphMarkdown(dto.Graph{
		Name:    "walk",
		Inputs:  []dto.Pin{{ID: "speed", Type: "float", Default: 1.0}},
		Outputs: []dto.Pin{{ID: "loops", Type: "int"}},
		Pose:    &dto.Pin{ID: "pose", Space: "local"},
		Nodes:   []dto.Node{{ID: "clip", Kind: "clip"}},
		Edges:   []dto.Edge{{Source: "clip.time", Target: "@out.time"}},
	})

	assert.Contains(t, md, "# graph `walk`\n")
	assert.Contains(t, md, "| Direction | Name | Type | Default |\n| --- | --- | --- | --- |\n")
	assert.Contains(t, md, "| input | speed | float | 1 |\n")
	assert.Contains(t, md, "| output | loops | int |  |\n")
	assert.Contains(t, md, "| pose | pose | local |  |\n")
	assert.Contains(t, md, "| clip | clip |\n")
	assert.Contains(t, md, "| `clip.time` | `@out.time` |\n")
}

func TestMachineMarkdown(t *testing.T) {
	md := MachineMarkdown(dto.Machine{
		Name:  "locomotion",
		Start: "idle",
		States: []dto.State{
			{ID: "idle", Kind: "state", Graph: "idle"},
			{ID: "idle_to_walk", Kind: "transition", Graph: "crossfade", Source: "idle", Target: "walk", Duration: 0.5},
		},
		Transitions: []dto.Transition{
			{From: "idle", To: "idle_to_walk", Event: "move"},
			{From: "idle_to_walk", To: "walk"},
		},
	})

	assert.Contains(t, md, "Starts in `idle`.")
	assert.Contains(t, md, "| idle | state | idle |\n")
	assert.Contains(t, md, "| idle_to_walk | transition | crossfade (idle → walk, 0.5s) |\n")
	assert.Contains(t, md, "| idle | idle_to_walk | move |\n")
	assert.Contains(t, md, "| idle_to_walk | walk | _end_ |\n")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "|___/_|_| |_|")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer()
	assert.NoError(t, err)
	out, err := render("# hello")
	assert.NoError(t, err)
	assert.Contains(t, out, "hello")
}
