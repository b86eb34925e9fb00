package metrics

import "github.com/prometheus/client_golang/prometheus"

// StockMetrics counts stock guard mutations by change type and outcome.
type StockMetrics struct {
	mutations *prometheus.CounterVec
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "apexflow_stock_mutations_total",
		Help: "Stock mutations attempted through the stock guard.",
	}, []string{"change_type", "outcome"})
	reg.MustRegister(mutations)
	return &StockMetrics{mutations: mutations}
}

// Observe records one mutation attempt. Outcome is ok, insufficient, or error.
func (m *StockMetrics) Observe(changeType, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(changeType), normalizeLabel(outcome)).Inc()
}

// SagaMetrics counts compensation activity.
type SagaMetrics struct {
	journaled *prometheus.CounterVec
	steps     *prometheus.CounterVec
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	journaled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "apexflow_saga_records_journaled_total",
		Help: "Compensation records persisted for later reconciliation.",
	}, []string{"operation"})
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "apexflow_saga_steps_total",
		Help: "Compensation steps executed, by action and outcome.",
	}, []string{"action", "outcome"})
	reg.MustRegister(journaled, steps)
	return &SagaMetrics{journaled: journaled, steps: steps}
}

// IncJournaled increments the journaled counter for an operation.
func (m *SagaMetrics) IncJournaled(operation string) {
	if m == nil || m.journaled == nil {
		return
	}
	m.journaled.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveStep records one executed compensation step.
func (m *SagaMetrics) ObserveStep(action, outcome string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}
