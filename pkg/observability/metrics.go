package observability

import (
	"context"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the designer's Prometheus collectors.
type Metrics struct {
	Mutations           *prometheus.CounterVec
	MutationErrors      *prometheus.CounterVec
	Persistence         *prometheus.CounterVec
	PersistenceDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_mutations_total",
				Help: "Structural changes applied to page trees",
			},
			[]string{"op"},
		),
		MutationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_mutation_errors_total",
				Help: "Mutations rejected before the tree changed, by error kind",
			},
			[]string{"kind"},
		),
		Persistence: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_persistence_total",
				Help: "Calls to the persistence collaborator",
			},
			[]string{"op", "result"},
		),
		PersistenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blocks_persistence_duration_seconds",
				Help:    "Duration of persistence calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.MutationErrors, m.Persistence, m.PersistenceDuration)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			if e.Type == domain.EventRejected {
				m.MutationErrors.WithLabelValues(e.Kind).Inc()
				return
			}
			m.Mutations.WithLabelValues(e.Op).Inc()
		},
		OnPersist: func(ctx context.Context, e *domain.PersistEvent) {
			result := "ok"
			if e.Type == domain.EventPersistFailed {
				result = "error"
			}
			m.Persistence.WithLabelValues(e.Op, result).Inc()
			m.PersistenceDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
	}
}
