package index

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records resource-store event counts and current index sizes.
// It observes the index; nothing in the computation path reads it.
type Metrics struct {
	events    *prometheus.CounterVec
	resources *prometheus.GaugeVec
}

// NewMetrics creates the index metrics and optionally registers them with
// the default prometheus registry
func NewMetrics(register bool) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "policy_index",
			Name:      "events_total",
			Help:      "Resource store events applied to the index.",
		}, []string{"kind", "namespace", "op"}),
		resources: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: "policy_index",
			Name:      "resources",
			Help:      "Resources currently held by the index.",
		}, []string{"kind", "namespace"}),
	}
	if register {
		prometheus.MustRegister(m.events, m.resources)
	}
	return m
}

func (m *Metrics) event(kind, namespace, op string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, namespace, op).Inc()
}

func (m *Metrics) setResources(kind, namespace string, n int) {
	if m == nil {
		return
	}
	m.resources.WithLabelValues(kind, namespace).Set(float64(n))
}

func (m *Metrics) forgetNamespace(namespace string) {
	if m == nil {
		return
	}
	m.resources.DeletePartialMatch(prometheus.Labels{"namespace": namespace})
}
