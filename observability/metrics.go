package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ledgerMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	tvl        prometheus.Gauge
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// Ledger returns the lazily-initialised metrics registry recording ledger
// operations.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rwa",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total ledger operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rwa",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations, lock wait included.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			tvl: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "rwa",
				Subsystem: "ledger",
				Name:      "total_value_locked",
				Help:      "Aggregate valuation of active assets in the smallest fiat unit.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.latency,
			ledgerRegistry.tvl,
		)
	})
	return ledgerRegistry
}

// Observe records the outcome of an operation. An empty outcome counts as
// success.
func (m *ledgerMetrics) Observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetTotalValueLocked publishes the latest TVL.
func (m *ledgerMetrics) SetTotalValueLocked(v float64) {
	if m == nil {
		return
	}
	m.tvl.Set(v)
}
