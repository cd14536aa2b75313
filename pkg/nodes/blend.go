package nodes

import (
	"math"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// BlendPoses interpolates a towards b by f. Bones present on one side only
// are taken from that side.
func BlendPoses(a, b domain.Pose, f float64) domain.Pose {
	out := domain.Pose{
		Bones:     make(map[string]domain.Transform, len(a.Bones)),
		Timestamp: a.Timestamp + (b.Timestamp-a.Timestamp)*f,
		Space:     a.Space,
	}
	for name, ta := range a.Bones {
		if tb, ok := b.Bones[name]; ok {
			out.Bones[name] = ta.Lerp(tb, f)
		} else {
			out.Bones[name] = ta
		}
	}
	for name, tb := range b.Bones {
		if _, ok := a.Bones[name]; !ok {
			out.Bones[name] = tb
		}
	}
	return out
}

// Blend mixes two pose inputs by a factor in [0, 1].
type Blend struct{}

func (Blend) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataInputs: graph.NewDataSpec(graph.DataPin{ID: PinFactor, Type: domain.TypeFloat}),
		TimeInputs: graph.NewTimeSpecs(
			graph.TimePin{ID: PinA},
			graph.TimePin{ID: PinB},
		),
		TimeOutput: &domain.TimeSpec{},
	}
}

func (Blend) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	f, err := floatBack(ctx, PinFactor)
	if err != nil {
		return err
	}
	f = math.Max(0, math.Min(f, 1))

	a, err := ctx.PoseBack(PinA, update)
	if err != nil {
		return err
	}
	b, err := ctx.PoseBack(PinB, update)
	if err != nil {
		return err
	}
	ctx.SetPoseFwd(BlendPoses(a, b, f))
	return nil
}

func (Blend) Duration(ctx graph.PassContext) error {
	da, err := ctx.DurationBack(PinA)
	if err != nil {
		return err
	}
	db, err := ctx.DurationBack(PinB)
	if err != nil {
		return err
	}
	switch {
	case da.Known && db.Known:
		f, err := floatBack(ctx, PinFactor)
		if err != nil {
			return err
		}
		f = math.Max(0, math.Min(f, 1))
		ctx.SetDurationFwd(domain.Seconds(da.Seconds + (db.Seconds-da.Seconds)*f))
	case da.Known:
		ctx.SetDurationFwd(da)
	case db.Known:
		ctx.SetDurationFwd(db)
	}
	return nil
}

// Speed scales the time update flowing to its pose input.
type Speed struct{}

func (Speed) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataInputs: graph.NewDataSpec(graph.DataPin{ID: PinFactor, Type: domain.TypeFloat}),
		TimeInputs: graph.NewTimeSpecs(graph.TimePin{ID: PinPose}),
		TimeOutput: &domain.TimeSpec{},
	}
}

func (Speed) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	f, err := floatBack(ctx, PinFactor)
	if err != nil {
		return err
	}
	scaled := update.Scale(f)
	p, err := ctx.PoseBack(PinPose, scaled)
	if err != nil {
		return err
	}
	ctx.SetPoseFwd(p)
	ctx.SetTimeUpdateFwd(scaled)
	return nil
}

func (Speed) Duration(ctx graph.PassContext) error {
	d, err := ctx.DurationBack(PinPose)
	if err != nil {
		return err
	}
	f, err := floatBack(ctx, PinFactor)
	if err != nil {
		return err
	}
	if d.Known && f > 0 {
		d = domain.Seconds(d.Seconds / f)
	}
	ctx.SetDurationFwd(d)
	return nil
}

func newStateless(c graph.Capability) registry.Factory {
	return func(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
		if err := registry.Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return c, nil
	}
}
