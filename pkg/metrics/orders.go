package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts status machine outcomes and submitted lines.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	submitted   prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status advance attempts by from/to status and outcome.",
	}, []string{"from", "to", "outcome"})
	submitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_lines_submitted_total",
		Help:      "Order documents written by batch submissions.",
	})
	reg.MustRegister(transitions, submitted)
	return &OrderMetrics{transitions: transitions, submitted: submitted}
}

// ObserveTransition records one advance attempt. to is empty for no-ops.
func (m *OrderMetrics) ObserveTransition(from, to, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) AddSubmitted(n int) {
	if m == nil || m.submitted == nil || n <= 0 {
		return
	}
	m.submitted.Add(float64(n))
}
