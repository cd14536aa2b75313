package nodes

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// Pin names shared by the builtin nodes.
const (
	PinValue  domain.PinID = "value"
	PinA      domain.PinID = "a"
	PinB      domain.PinID = "b"
	PinFactor domain.PinID = "factor"
	PinPose   domain.PinID = "pose"
	PinEvents domain.PinID = "events"
	PinCond   domain.PinID = "condition"
)

// Constant outputs a fixed value.
type Constant struct {
	Value domain.Value
}

func (c *Constant) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataOutputs: graph.NewDataSpec(graph.DataPin{ID: PinValue, Type: c.Value.Type()}),
	}
}

func (c *Constant) Data(ctx graph.PassContext) error {
	ctx.SetDataFwd(PinValue, c.Value)
	return nil
}

type constantParams struct {
	Type  string `mapstructure:"type"`
	Value any    `mapstructure:"value"`
}

func newConstant(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p constantParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = domain.TypeFloat.String()
	}
	typ, err := domain.ParsePinType(p.Type)
	if err != nil {
		return nil, err
	}
	v, err := domain.ValueFrom(typ, p.Value)
	if err != nil {
		return nil, err
	}
	return &Constant{Value: v}, nil
}

// Arithmetic combines two float inputs.
type Arithmetic struct {
	Op string
}

func (a *Arithmetic) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataInputs: graph.NewDataSpec(
			graph.DataPin{ID: PinA, Type: domain.TypeFloat},
			graph.DataPin{ID: PinB, Type: domain.TypeFloat},
		),
		DataOutputs: graph.NewDataSpec(graph.DataPin{ID: PinValue, Type: domain.TypeFloat}),
	}
}

func (a *Arithmetic) Data(ctx graph.PassContext) error {
	x, err := floatBack(ctx, PinA)
	if err != nil {
		return err
	}
	y, err := floatBack(ctx, PinB)
	if err != nil {
		return err
	}
	switch a.Op {
	case "add":
		ctx.SetDataFwd(PinValue, domain.Float(x+y))
	case "mul":
		ctx.SetDataFwd(PinValue, domain.Float(x*y))
	default:
		return fmt.Errorf("unknown operator %q", a.Op)
	}
	return nil
}

func newArithmetic(op string) registry.Factory {
	return func(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
		if err := registry.Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return &Arithmetic{Op: op}, nil
	}
}

func floatBack(ctx graph.PassContext, pin domain.PinID) (float64, error) {
	v, err := ctx.DataBack(pin)
	if err != nil {
		return 0, err
	}
	return domain.AsFloat(v)
}
