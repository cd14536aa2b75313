package sinew

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// Pool steps many independent instances. Each instance is evaluated by a
// single goroutine per Tick; instances never share state, so they run in
// parallel.
type Pool struct {
	mu        sync.Mutex
	instances map[string]*Instance
	limit     int
	metrics   *observability.Metrics
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency caps the number of instances stepped at once. Zero or a
// negative value means no limit.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		p.limit = n
	}
}

// WithFrameMetrics records the duration of each instance frame.
func WithFrameMetrics(m *observability.Metrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

// NewPool creates an empty pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{instances: make(map[string]*Instance)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add registers an instance under its id, replacing any instance with the same id.
func (p *Pool) Add(in *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instances[in.ID()] = in
}

// Remove drops the instance with the given id and reports whether it existed.
func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.instances[id]
	delete(p.instances, id)
	return ok
}

// Get returns the instance with the given id.
func (p *Pool) Get(id string) (*Instance, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.instances[id]
	return in, ok
}

// IDs lists the instance ids in sorted order.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.instances))
	for id := range p.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of instances.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.instances)
}

// Tick steps every instance by update and returns the resulting poses by
// instance id. The first failure cancels the instances not yet started and
// is returned; poses of the instances that completed are still returned.
// Tick must not run concurrently with itself.
func (p *Pool) Tick(ctx context.Context, update domain.TimeUpdate) (map[string]domain.Pose, error) {
	p.mu.Lock()
	batch := make(map[string]*Instance, len(p.instances))
	for id, in := range p.instances {
		batch[id] = in
	}
	p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	var mu sync.Mutex
	poses := make(map[string]domain.Pose, len(batch))
	for id, in := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			pose, err := in.Step(ctx, update)
			if p.metrics != nil {
				p.metrics.ObserveFrame(start)
			}
			if err != nil {
				return fmt.Errorf("instance %s: %w", id, err)
			}
			mu.Lock()
			poses[id] = pose
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return poses, err
}
