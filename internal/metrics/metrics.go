package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline holds the consumer-side counters. Register against the
// process registry once at startup.
type Pipeline struct {
	Processed            prometheus.Counter
	Acked                prometheus.Counter
	ValidationFailures   prometheus.Counter
	PersistenceRetries   prometheus.Counter
	PersistenceConflicts prometheus.Counter
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		Processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_events_processed_total",
			Help: "Events validated, persisted and committed.",
		}),
		Acked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_events_acked_total",
			Help: "Messages acknowledged to the stream.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_events_validation_failures_total",
			Help: "Malformed events acknowledged without persistence.",
		}),
		PersistenceRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_events_persistence_retries_total",
			Help: "Transient store failures left for redelivery.",
		}),
		PersistenceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_events_persistence_conflicts_total",
			Help: "Non-transient store rejections escalated to the operator.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			p.Processed,
			p.Acked,
			p.ValidationFailures,
			p.PersistenceRetries,
			p.PersistenceConflicts,
		)
	}

	return p
}
