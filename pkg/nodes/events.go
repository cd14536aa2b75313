package nodes

import (
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// FireEvent emits Event on its events output while its condition is true.
type FireEvent struct {
	Event domain.Event
}

func (f *FireEvent) Spec() graph.NodeSpec {
	return graph.NodeSpec{
		DataInputs:  graph.NewDataSpec(graph.DataPin{ID: PinCond, Type: domain.TypeBool}),
		DataOutputs: graph.NewDataSpec(graph.DataPin{ID: PinEvents, Type: domain.TypeEventQueue}),
	}
}

func (f *FireEvent) Data(ctx graph.PassContext) error {
	v, err := ctx.DataBack(PinCond)
	if err != nil {
		return err
	}
	cond, ok := v.(domain.Bool)
	if !ok {
		return fmt.Errorf("condition: expected bool, got %T", v)
	}
	if cond {
		ctx.SetDataFwd(PinEvents, domain.EventQueue{f.Event})
	} else {
		ctx.SetDataFwd(PinEvents, domain.EventQueue{})
	}
	return nil
}

type fireEventParams struct {
	Event string `mapstructure:"event"`
	Kind  string `mapstructure:"kind"`
}

func newFireEvent(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p fireEventParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	kind, err := domain.ParseEventKind(p.Kind)
	if err != nil {
		return nil, err
	}
	if p.Event == "" && kind != domain.EventEndTransition {
		return nil, fmt.Errorf("event is required")
	}
	return &FireEvent{Event: domain.Event{Kind: kind, ID: p.Event}}, nil
}
