package fsm

import (
	"errors"
	"fmt"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/registry"
)

// Node kinds registered by this package.
const (
	KindMachine   = "fsm"
	KindStatePose = "state_pose"
)

// Register adds the state machine node kinds to r.
func Register(r *registry.Registry) {
	r.Register(KindMachine, newMachineNode)
	r.Register(KindStatePose, newStatePose)
}

type machineParams struct {
	Machine string `mapstructure:"machine"`
}

func newMachineNode(ctx registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p machineParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	if p.Machine == "" {
		return nil, errors.New("machine is required")
	}
	if ctx.Resolve == nil {
		return nil, fmt.Errorf("machine %q: %w", p.Machine, domain.ErrGraphAssetMissing)
	}
	asset, err := ctx.Resolve(ctx.Context, p.Machine)
	if err != nil {
		return nil, err
	}
	m, ok := asset.(*Machine)
	if !ok {
		return nil, fmt.Errorf("asset %q is %T, not a state machine", p.Machine, asset)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &MachineNode{Machine: m}, nil
}

type statePoseParams struct {
	Role string `mapstructure:"role"`
}

func newStatePose(_ registry.BuildContext, params map[string]any) (graph.Capability, error) {
	var p statePoseParams
	if err := registry.Decode(params, &p); err != nil {
		return nil, err
	}
	role, ok := domain.ParseStateRole(p.Role)
	if !ok {
		return nil, fmt.Errorf("role must be source or target, got %q", p.Role)
	}
	return &StatePoseNode{Role: role}, nil
}
