package publish

import (
	"sync"
	"time"

	"github.com/Klingon-tech/kaschess/internal/broadcast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts publish attempts. The zero value is usable; nothing is
// exported to Prometheus until Register is called.
type Metrics struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram

	registerOnce sync.Once
}

// Register registers Prometheus metrics with the given registry.
// If registry is nil, this is a no-op. Later calls are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)
		m.total = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kaschess_publish_total",
			Help: "Publish attempts by outcome",
		}, []string{"outcome"})
		m.duration = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kaschess_publish_duration_seconds",
			Help:    "Time from utxo fetch to node verdict",
			Buckets: prometheus.DefBuckets,
		})
	})
}

func (m *Metrics) observe(outcome broadcast.Outcome, elapsed time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(outcome.String()).Inc()
	m.duration.Observe(elapsed.Seconds())
}
