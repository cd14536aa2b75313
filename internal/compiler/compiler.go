package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/sinew/internal/logging"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/dsl"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/aretw0/sinew/pkg/registry"
)

// Compiler turns documents served by an AssetLoader into graphs and state
// machines. Nested assets are compiled on demand and shared: every reference
// to the same name yields the same *graph.Graph. Safe for concurrent use.
type Compiler struct {
	loader ports.AssetLoader
	reg    *registry.Registry
	logger *slog.Logger
	prune  bool

	mu       sync.Mutex
	cache    map[string]any
	building []string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used to report pruned edges.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrune drops illegal edges instead of failing the compilation.
func WithPrune(prune bool) Option {
	return func(c *Compiler) {
		c.prune = prune
	}
}

// New creates a compiler reading from loader and building nodes with reg.
func New(loader ports.AssetLoader, reg *registry.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		loader: loader,
		reg:    reg,
		logger: logging.NewNop(),
		cache:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Asset compiles name and returns a *graph.Graph or a *fsm.Machine.
func (c *Compiler) Asset(ctx context.Context, name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(ctx, name)
}

// Graph compiles a graph asset.
func (c *Compiler) Graph(ctx context.Context, name string) (*graph.Graph, error) {
	asset, err := c.Asset(ctx, name)
	if err != nil {
		return nil, err
	}
	g, ok := asset.(*graph.Graph)
	if !ok {
		return nil, fmt.Errorf("asset %q is a %s, not a graph", name, KindMachine)
	}
	return g, nil
}

// Machine compiles a state machine asset.
func (c *Compiler) Machine(ctx context.Context, name string) (*fsm.Machine, error) {
	asset, err := c.Asset(ctx, name)
	if err != nil {
		return nil, err
	}
	m, ok := asset.(*fsm.Machine)
	if !ok {
		return nil, fmt.Errorf("asset %q is a %s, not a state machine", name, KindGraph)
	}
	return m, nil
}

// Invalidate drops compiled assets so the next request reloads them.
// Dependencies between assets are not tracked, so any change drops the whole
// cache: a graph embedding a changed asset still holds the old one.
func (c *Compiler) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.cache)
	c.logger.Debug("assets invalidated", "names", names)
}

// ValidateAll compiles every asset of the loader and returns the failures by name.
func (c *Compiler) ValidateAll(ctx context.Context) (map[string]error, error) {
	names, err := c.loader.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	failures := make(map[string]error)
	for _, name := range names {
		if _, err := c.Asset(ctx, name); err != nil {
			failures[name] = err
		}
	}
	return failures, nil
}

// resolve is the registry.Resolver handed to node factories. c.mu is held.
func (c *Compiler) resolve(ctx context.Context, name string) (any, error) {
	if asset, ok := c.cache[name]; ok {
		return asset, nil
	}
	for _, b := range c.building {
		if b == name {
			chain := append(append([]string(nil), c.building...), name)
			return nil, fmt.Errorf("%w: %s", ErrRecursiveAsset, strings.Join(chain, " -> "))
		}
	}
	c.building = append(c.building, name)
	defer func() { c.building = c.building[:len(c.building)-1] }()

	data, err := c.loader.GetAsset(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			return nil, fmt.Errorf("asset %q: %w: %w", name, domain.ErrGraphAssetMissing, err)
		}
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}

	var asset any
	switch doc.Kind {
	case KindGraph:
		asset, err = c.compileGraph(ctx, doc)
	case KindMachine:
		asset, err = c.compileMachine(ctx, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	c.cache[name] = asset
	return asset, nil
}

func (c *Compiler) compileGraph(ctx context.Context, doc *Document) (*graph.Graph, error) {
	b := dsl.New(doc.Name)
	if c.prune {
		b.PruneIllegal()
	}
	var errs []error

	for _, in := range doc.Inputs {
		typ, err := domain.ParsePinType(in.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %q: %w", in.Name, err))
			continue
		}
		var def domain.Value
		if in.Default != nil {
			if def, err = domain.ValueFrom(typ, in.Default); err != nil {
				errs = append(errs, fmt.Errorf("input %q default: %w", in.Name, err))
				continue
			}
		}
		b.Input(in.Name, typ, def)
	}
	for _, in := range doc.TimeInputs {
		space, err := domain.ParsePoseSpace(in.Space)
		if err != nil {
			errs = append(errs, fmt.Errorf("time input %q: %w", in.Name, err))
			continue
		}
		b.TimeInput(in.Name, space)
	}

	for _, n := range doc.Nodes {
		capability, err := c.reg.Build(registry.BuildContext{
			Context: ctx,
			NodeID:  domain.NodeID(n.ID),
			Resolve: c.resolve,
			Logger:  c.logger,
		}, n.Kind, n.Params)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		nb := b.Add(n.ID, capability).Kind(n.Kind)
		if n.Debug {
			nb.Debug()
		}
		if n.Position != nil {
			nb.At(n.Position.X, n.Position.Y)
		}
		pins := make([]string, 0, len(n.Inputs))
		for pin := range n.Inputs {
			pins = append(pins, pin)
		}
		sort.Strings(pins)
		for _, pin := range pins {
			nb.In(pin, n.Inputs[pin])
		}
	}

	for _, out := range doc.Outputs {
		typ, err := domain.ParsePinType(out.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("output %q: %w", out.Name, err))
			continue
		}
		b.Output(out.Name, typ, out.From)
	}
	if doc.Pose != "" {
		b.PoseOutput(doc.Pose)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	for _, e := range b.Pruned() {
		c.logger.Warn("illegal edge pruned", "graph", doc.Name, "edge", e.String())
	}
	return g, nil
}

func (c *Compiler) compileMachine(ctx context.Context, doc *Document) (*fsm.Machine, error) {
	mb := dsl.NewMachine(doc.Name).Start(doc.Start)
	var errs []error

	for _, in := range doc.Inputs {
		typ, err := domain.ParsePinType(in.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %q: %w", in.Name, err))
			continue
		}
		mb.Input(in.Name, typ)
	}
	for _, in := range doc.TimeInputs {
		space, err := domain.ParsePoseSpace(in.Space)
		if err != nil {
			errs = append(errs, fmt.Errorf("time input %q: %w", in.Name, err))
			continue
		}
		mb.TimeInput(in.Name, space)
	}

	for _, s := range doc.States {
		g, err := c.graphRef(ctx, s.Graph)
		if err != nil {
			errs = append(errs, fmt.Errorf("state %q: %w", s.ID, err))
			continue
		}
		mb.State(s.ID, g)
	}
	for _, t := range doc.Transitions {
		tb := mb.Transition(t.From, t.To).On(t.Event)
		if t.ID != "" {
			tb.ID(t.ID)
		}
		if t.Blend == "" {
			continue
		}
		g, err := c.graphRef(ctx, t.Blend)
		if err != nil {
			errs = append(errs, fmt.Errorf("transition %s -> %s: %w", t.From, t.To, err))
			continue
		}
		tb.Blend(g, t.Duration)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return mb.Build()
}

func (c *Compiler) graphRef(ctx context.Context, name string) (*graph.Graph, error) {
	asset, err := c.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	g, ok := asset.(*graph.Graph)
	if !ok {
		return nil, fmt.Errorf("asset %q is not a graph", name)
	}
	return g, nil
}
