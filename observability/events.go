package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	committed *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			committed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rwa",
				Subsystem: "events",
				Name:      "committed_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
			dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rwa",
				Subsystem: "events",
				Name:      "sink_failures_total",
				Help:      "Count of events a downstream sink failed to accept.",
			}, []string{"sink"}),
		}
		prometheus.MustRegister(eventRegistry.committed, eventRegistry.dropped)
	})
	return eventRegistry
}

// RecordCommitted increments the committed counter for the event type.
func (m *eventMetrics) RecordCommitted(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.committed.WithLabelValues(normalized).Inc()
}

// RecordSinkFailure counts an event a sink could not deliver.
func (m *eventMetrics) RecordSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink).Inc()
}
