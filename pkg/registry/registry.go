package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/mitchellh/mapstructure"
)

// Resolver loads a nested asset (a *graph.Graph or a state machine) referenced
// by node params. It returns domain.ErrGraphAssetMissing for unknown names.
type Resolver func(ctx context.Context, name string) (any, error)

// BuildContext is passed to factories while a document is compiled.
type BuildContext struct {
	Context context.Context
	NodeID  domain.NodeID
	Resolve Resolver
	Logger  *slog.Logger
}

// Factory builds a node capability from its params.
type Factory func(ctx BuildContext, params map[string]any) (graph.Capability, error)

// Registry maps node kinds to factories. It is the extension point for node
// implementations defined outside this module.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory to the registry.
// If a factory with the same kind exists, it is overwritten.
func (r *Registry) Register(kind string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = fn
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build looks up a factory by kind and runs it.
// Returns an error if the kind is not found.
func (r *Registry) Build(ctx BuildContext, kind string, params map[string]any) (graph.Capability, error) {
	r.mu.RLock()
	fn, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("node kind not found: %s", kind)
	}
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}

	capability, err := fn(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("node %q (%s): %w", ctx.NodeID, kind, err)
	}
	return capability, nil
}

// Decode copies loosely typed params into out, a pointer to a struct using
// mapstructure tags. Unknown keys are rejected.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
