package nodes

import (
	"fmt"
	"math"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// PinLoops is the data output counting completed loops of a clip.
const PinLoops domain.PinID = "loops"

// ClipSource supplies sampled animation data to a Clip node.
// Implementations backed by real animation assets live outside this module.
type ClipSource interface {
	Length() float64
	Sample(t float64) map[string]domain.Transform
}

// BoneTrack moves one bone linearly between two translations.
type BoneTrack struct {
	From domain.Vec3
	To   domain.Vec3
}

// LinearClip is a procedural ClipSource interpolating each track over Seconds.
type LinearClip struct {
	Seconds float64
	Tracks  map[string]BoneTrack
}

func (c LinearClip) Length() float64 { return c.Seconds }

func (c LinearClip) Sample(t float64) map[string]domain.Transform {
	f := 0.0
	if c.Seconds > 0 {
		f = t / c.Seconds
	}
	out := make(map[string]domain.Transform, len(c.Tracks))
	for name, track := range c.Tracks {
		tr := domain.IdentityTransform
		tr.Translation = track.From.Lerp(track.To, f)
		out[name] = tr
	}
	return out
}

// Clip plays a ClipSource. Its playhead is the timestamp it produced last
// frame, advanced by the incoming TimeUpdate.
type Clip struct {
	Source ClipSource
	Loop   bool
}

type clipState struct {
	Loops int
}

func (c *Clip) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataOutputs: graph.NewDataSpec(graph.DataPin{ID: PinLoops, Type: domain.TypeInt}),
		TimeOutput:  &domain.TimeSpec{Space: domain.SpaceLocal},
	}
}

func (c *Clip) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	st, err := graph.LocalState(ctx, func() clipState { return clipState{} })
	if err != nil {
		return err
	}

	prev, _ := ctx.PrevTime()
	t := update.Apply(prev)
	if length := c.Source.Length(); length > 0 {
		if c.Loop {
			if wraps := math.Floor(t / length); wraps != 0 {
				if wraps > 0 {
					st.Loops += int(wraps)
				}
				t -= wraps * length
			}
		} else {
			t = math.Max(0, math.Min(t, length))
		}
	}

	ctx.SetPoseFwd(domain.Pose{
		Bones:     c.Source.Sample(t),
		Timestamp: t,
		Space:     domain.SpaceLocal,
	})
	return nil
}

func (c *Clip) Duration(ctx graph.PassContext) error {
	if length := c.Source.Length(); length > 0 {
		ctx.SetDurationFwd(domain.Seconds(length))
	}
	return nil
}

func (c *Clip) Data(ctx graph.PassContext) error {
	st, err := graph.LocalState(ctx, func() clipState { return clipState{} })
	if err != nil {
		return err
	}
	ctx.SetDataFwd(PinLoops, domain.Int(st.Loops))
	return nil
}

type clipParams struct {
	Duration float64 `mapstructure:"duration"`
	Loop     bool    `mapstructure:"loop"`
	Bones    map[string]struct {
		From []float64 `mapstructure:"from"`
		To   []float64 `mapstructure:"to"`
	} `mapstructure:"bones"`
}

func newClip(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p clipParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	if p.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %g", p.Duration)
	}
	src := LinearClip{Seconds: p.Duration, Tracks: make(map[string]BoneTrack, len(p.Bones))}
	for name, b := range p.Bones {
		from, err := vec3(b.From)
		if err != nil {
			return nil, fmt.Errorf("bone %q from: %w", name, err)
		}
		to, err := vec3(b.To)
		if err != nil {
			return nil, fmt.Errorf("bone %q to: %w", name, err)
		}
		src.Tracks[name] = BoneTrack{From: from, To: to}
	}
	return &Clip{Source: src, Loop: p.Loop}, nil
}

func vec3(xs []float64) (domain.Vec3, error) {
	switch len(xs) {
	case 0:
		return domain.Vec3{}, nil
	case 3:
		return domain.Vec3{X: xs[0], Y: xs[1], Z: xs[2]}, nil
	}
	return domain.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(xs))
}
