package mocknode

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted    = "accepted"
	resultRejected    = "rejected"
	resultUnavailable = "unavailable"
)

// Metrics counts submissions seen by a node.
type Metrics struct {
	submissions *prometheus.CounterVec

	registerOnce sync.Once
}

// Register registers Prometheus metrics with the given registry.
// If registry is nil, this is a no-op.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		m.submissions = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "kaschess_devnode_submissions_total",
			Help: "Transaction submissions by result",
		}, []string{"result"})
	})
}

func (m *Metrics) observe(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}
