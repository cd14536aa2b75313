package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sinew/pkg/domain"
)

// Combine merges hook sets so every non-nil callback runs, in argument order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var passes, hits []func(context.Context, *domain.PassEvent)
	var enters, leaves []func(context.Context, *domain.StateEvent)
	for _, h := range hooks {
		if h.OnNodePass != nil {
			passes = append(passes, h.OnNodePass)
		}
		if h.OnCacheHit != nil {
			hits = append(hits, h.OnCacheHit)
		}
		if h.OnStateEnter != nil {
			enters = append(enters, h.OnStateEnter)
		}
		if h.OnStateLeave != nil {
			leaves = append(leaves, h.OnStateLeave)
		}
	}
	return domain.LifecycleHooks{
		OnNodePass:   fanOut(passes),
		OnCacheHit:   fanOut(hits),
		OnStateEnter: fanOut(enters),
		OnStateLeave: fanOut(leaves),
	}
}

func fanOut[E any](fns []func(context.Context, *E)) func(context.Context, *E) {
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return fns[0]
	}
	return func(ctx context.Context, e *E) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

// LogHooks logs state changes at info level and node passes at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodePass: func(ctx context.Context, e *domain.PassEvent) {
			logger.DebugContext(ctx, "node_pass",
				"instance", e.Instance,
				"frame", e.Frame,
				"graph", e.Graph,
				"node_id", e.NodeID,
				"pass", e.Pass,
				"temp", e.Temp,
			)
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.InfoContext(ctx, "state_enter",
				"instance", e.Instance,
				"frame", e.Frame,
				"machine", e.Machine,
				"state", e.State,
				"transition", e.Transition,
			)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			logger.InfoContext(ctx, "state_leave",
				"instance", e.Instance,
				"frame", e.Frame,
				"machine", e.Machine,
				"state", e.State,
			)
		},
	}
}
