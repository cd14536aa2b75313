package observability

import (
	"context"
	"time"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of an engine.
type Metrics struct {
	NodePasses  *prometheus.CounterVec
	CacheHits   *prometheus.CounterVec
	StateEnters *prometheus.CounterVec
	Frames      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodePasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinew_node_passes_total",
				Help: "Total number of node passes computed",
			},
			[]string{"graph", "pass"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinew_cache_hits_total",
				Help: "Total number of pin reads served from the cache",
			},
			[]string{"graph", "pass"},
		),
		StateEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinew_state_enters_total",
				Help: "Total number of state machine states entered",
			},
			[]string{"machine", "state"},
		),
		Frames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sinew_frame_duration_seconds",
			Help:    "Wall time spent evaluating a frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.NodePasses, m.CacheHits, m.StateEnters, m.Frames)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodePass: func(_ context.Context, e *domain.PassEvent) {
			m.NodePasses.WithLabelValues(e.Graph, string(e.Pass)).Inc()
		},
		OnCacheHit: func(_ context.Context, e *domain.PassEvent) {
			m.CacheHits.WithLabelValues(e.Graph, string(e.Pass)).Inc()
		},
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateEnters.WithLabelValues(e.Machine, string(e.State)).Inc()
		},
	}
}

// ObserveFrame records the time a frame took since start.
func (m *Metrics) ObserveFrame(start time.Time) {
	m.Frames.Observe(time.Since(start).Seconds())
}
