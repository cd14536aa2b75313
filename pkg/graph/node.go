package graph

import "github.com/aretw0/sinew/pkg/domain"

// Capability is the contract every node implementation satisfies.
// Only Spec is mandatory; compute passes are discovered through the optional
// interfaces below so a node implements exactly the passes it needs.
type Capability interface {
	Spec() NodeSpec
}

// DataComputer computes data outputs. A single pass may forward several outputs.
type DataComputer interface {
	Data(ctx PassContext) error
}

// DurationComputer propagates a content-length hint through SetDurationFwd.
type DurationComputer interface {
	Duration(ctx PassContext) error
}

// PoseComputer produces a pose (and its timestamp) for an incoming time update.
type PoseComputer interface {
	Pose(ctx PassContext, update domain.TimeUpdate) error
}

// TimeUpdater produces the time update flowing out of a node's time output.
type TimeUpdater interface {
	TimeUpdate(ctx PassContext) error
}

// Updater runs once per frame regardless of whether the node's outputs are consumed.
type Updater interface {
	Update(ctx PassContext) error
}

// Position is editor-only canvas metadata. It is ignored by evaluation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is an entry of a graph.
type Node struct {
	ID         domain.NodeID
	Kind       string
	Capability Capability

	// Debug is transient: it is never persisted and only raises log verbosity.
	Debug bool `json:"-" yaml:"-"`
}
