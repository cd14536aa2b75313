package sinew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/sinew/internal/compiler"
	"github.com/aretw0/sinew/internal/logging"
	presentation "github.com/aretw0/sinew/internal/presentation/graph"
	"github.com/aretw0/sinew/internal/runtime"
	"github.com/aretw0/sinew/pkg/adapters/file"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/nodes"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/aretw0/sinew/pkg/registry"
)

// ErrNotWatchable is returned by Watch when the loader cannot report changes.
var ErrNotWatchable = errors.New("current loader does not support watching")

// Instance is a running evaluation of a graph. It is not safe for concurrent use.
type Instance = runtime.Instance

// InstanceOption configures an Instance created by Engine.NewInstance.
type InstanceOption = runtime.Option

// InstanceID overrides the generated instance id.
func InstanceID(id string) InstanceOption { return runtime.WithID(id) }

// InstanceInputs sets the initial values of the graph inputs.
func InstanceInputs(o graph.Overlay) InstanceOption { return runtime.WithInputs(o) }

// InstanceHooks sets the lifecycle hooks of one instance.
func InstanceHooks(hooks domain.LifecycleHooks) InstanceOption {
	return runtime.WithLifecycleHooks(hooks)
}

// NewGraphInstance creates an instance for a graph built in code, e.g. with
// package dsl, without going through an Engine.
func NewGraphInstance(g *graph.Graph, opts ...InstanceOption) *Instance {
	return runtime.New(g, opts...)
}

// Engine is the high-level entry point for the sinew library.
// It compiles assets from a loader and creates instances evaluating them.
type Engine struct {
	loader   ports.AssetLoader
	registry *registry.Registry
	compiler *compiler.Compiler
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	prune    bool
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom AssetLoader, bypassing the default directory loader.
func WithLoader(l ports.AssetLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRegistry replaces the node registry. The builtin nodes and the state
// machine nodes are not added to a custom registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLifecycleHooks registers observability hooks on every instance.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPrune drops illegal edges while compiling instead of rejecting the asset.
func WithPrune(prune bool) Option {
	return func(e *Engine) {
		e.prune = prune
	}
}

// NewRegistry returns a registry holding the builtin nodes and the state
// machine nodes.
func NewRegistry() *registry.Registry {
	r := registry.NewRegistry()
	nodes.Register(r)
	fsm.Register(r)
	return r
}

// New initializes a new Engine.
// By default, it reads YAML assets from the directory dir.
// If WithLoader option is provided, dir can be empty and only names the engine.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if dir == "" {
			return nil, fmt.Errorf("dir is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		eng.loader = file.New(absPath)
	} else if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("library", eng.Name)
	}
	if eng.registry == nil {
		eng.registry = NewRegistry()
	}

	eng.compiler = compiler.New(eng.loader, eng.registry,
		compiler.WithLogger(eng.logger),
		compiler.WithPrune(eng.prune),
	)
	return eng, nil
}

// Graph compiles the graph asset name. Compiled assets are cached until the
// loader reports a change through Watch or Reload is called.
func (e *Engine) Graph(ctx context.Context, name string) (*graph.Graph, error) {
	return e.compiler.Graph(ctx, name)
}

// Machine compiles the state machine asset name.
func (e *Engine) Machine(ctx context.Context, name string) (*fsm.Machine, error) {
	return e.compiler.Machine(ctx, name)
}

// Assets lists the asset names known to the loader.
func (e *Engine) Assets(ctx context.Context) ([]string, error) {
	return e.loader.ListAssets(ctx)
}

// Validate compiles every asset and returns the failures by name.
func (e *Engine) Validate(ctx context.Context) (map[string]error, error) {
	return e.compiler.ValidateAll(ctx)
}

// NewInstance compiles the graph asset name and creates an instance for it.
// The engine logger and hooks are applied before opts.
func (e *Engine) NewInstance(ctx context.Context, name string, opts ...InstanceOption) (*Instance, error) {
	g, err := e.Graph(ctx, name)
	if err != nil {
		return nil, err
	}
	base := []InstanceOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	return runtime.New(g, append(base, opts...)...), nil
}

// Mermaid renders the asset name as a Mermaid diagram: a flowchart for
// graphs, a state diagram for machines.
func (e *Engine) Mermaid(ctx context.Context, name string) (string, error) {
	asset, err := e.compiler.Asset(ctx, name)
	if err != nil {
		return "", err
	}
	switch a := asset.(type) {
	case *graph.Graph:
		return presentation.GraphMermaid(a, nil), nil
	case *fsm.Machine:
		return presentation.MachineMermaid(a, nil), nil
	}
	return "", fmt.Errorf("asset %q has unexpected type %T", name, asset)
}

// Reload drops every compiled asset.
func (e *Engine) Reload() {
	e.compiler.Invalidate()
}

// Watch returns a channel that signals when an asset changes. Compiled assets
// are dropped before each name is delivered, so the next Graph call sees the
// new version. Returns ErrNotWatchable if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for name := range changes {
			e.compiler.Invalidate(name)
			e.logger.Info("asset changed", "asset", name)
			select {
			case out <- name:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Loader returns the underlying AssetLoader used by the engine.
func (e *Engine) Loader() ports.AssetLoader {
	return e.loader
}

// Registry returns the node registry used to compile assets.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}
