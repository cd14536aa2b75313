package nodes

import (
	"errors"
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// Subgraph evaluates a nested graph in its own context. The nested graph's
// unconnected inputs resolve through this node's inputs in the outer graph.
type Subgraph struct {
	Graph *graph.Graph
}

func (s *Subgraph) Spec() graph.NodeSpec { return s.Graph.BoundarySpec() }

func (s *Subgraph) Data(ctx graph.PassContext) error {
	n := ctx.Nested(s.Graph, "")
	for _, pin := range graph.DataPins(s.Graph.OutputData()) {
		// Unconnected outputs only fail when a consumer asks for them.
		if _, ok := s.Graph.SourceOf(domain.GraphOutputData(pin.ID)); !ok {
			continue
		}
		v, err := n.DataOut(pin.ID)
		if err != nil {
			return err
		}
		ctx.SetDataFwd(pin.ID, v)
	}
	return nil
}

func (s *Subgraph) Pose(ctx graph.PassContext, update domain.TimeUpdate) error {
	p, err := ctx.Nested(s.Graph, "").PoseOut(update)
	if err != nil {
		return err
	}
	ctx.SetPoseFwd(p)
	return nil
}

func (s *Subgraph) Duration(ctx graph.PassContext) error {
	d, err := ctx.Nested(s.Graph, "").DurationOut()
	if err != nil {
		return err
	}
	ctx.SetDurationFwd(d)
	return nil
}

func (s *Subgraph) TimeUpdate(ctx graph.PassContext) error {
	u, err := ctx.Nested(s.Graph, "").TimeUpdateOut()
	if err != nil {
		return err
	}
	ctx.SetTimeUpdateFwd(u)
	return nil
}

func (s *Subgraph) Update(ctx graph.PassContext) error {
	return ctx.Nested(s.Graph, "").Update()
}

type subgraphParams struct {
	Graph string `mapstructure:"graph"`
}

func newSubgraph(ctx registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p subgraphParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	if p.Graph == "" {
		return nil, errors.New("graph is required")
	}
	if ctx.Resolve == nil {
		return nil, fmt.Errorf("graph %q: %w", p.Graph, domain.ErrGraphAssetMissing)
	}
	asset, err := ctx.Resolve(ctx.Context, p.Graph)
	if err != nil {
		return nil, err
	}
	g, ok := asset.(*graph.Graph)
	if !ok {
		return nil, fmt.Errorf("asset %q is %T, not a graph", p.Graph, asset)
	}
	return &Subgraph{Graph: g}, nil
}
