package nodes

import "github.com/aretw0/sinew/pkg/registry"

// Builtin node kinds.
const (
	KindConstant  = "constant"
	KindAdd       = "add"
	KindMul       = "mul"
	KindClip      = "clip"
	KindBlend     = "blend"
	KindSpeed     = "speed"
	KindFireEvent = "fire_event"
	KindGraph     = "graph"
)

// Register adds the builtin node kinds to r.
func Register(r *registry.Registry) {
	r.Register(KindConstant, newConstant)
	r.Register(KindAdd, newArithmetic("add"))
	r.Register(KindMul, newArithmetic("mul"))
	r.Register(KindClip, newClip)
	r.Register(KindBlend, newStateless(Blend{}))
	r.Register(KindSpeed, newStateless(Speed{}))
	r.Register(KindFireEvent, newFireEvent)
	r.Register(KindGraph, newSubgraph)
}
