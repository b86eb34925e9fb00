package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics covers the cron worker: per-job runs plus what the saga
// reconcile and stock ledger audit jobs found. A nil receiver or a value
// built without a registerer drops every observation.
type CronJobMetrics struct {
	duration   *prometheus.HistogramVec
	runs       *prometheus.CounterVec
	compensate *prometheus.CounterVec
	ledgerGaps prometheus.Gauge
	lowStock   prometheus.Gauge
}

// NewCronJobMetrics registers the worker metrics on reg.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apexflow_cron_job_duration_seconds",
			Help:    "Duration of cron jobs in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apexflow_cron_job_runs_total",
			Help: "Cron job executions by result.",
		}, []string{"job", "result"}),
		compensate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apexflow_saga_compensations_total",
			Help: "Journaled saga compensation records processed by the reconcile job, by outcome.",
		}, []string{"outcome"}),
		ledgerGaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apexflow_stock_ledger_gaps",
			Help: "Chain gaps found by the last stock ledger audit.",
		}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apexflow_low_stock_products",
			Help: "Listed products below the low stock threshold at the last audit.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.compensate, m.ledgerGaps, m.lowStock)
	return m
}

// ObserveRun records one execution of job. A non-nil err counts as a failure.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.runs.WithLabelValues(job, result).Inc()
}

// ObserveCompensations adds the outcome counts of one reconcile pass.
func (c *CronJobMetrics) ObserveCompensations(resolved, failed, abandoned int) {
	if c == nil || c.compensate == nil {
		return
	}
	c.compensate.WithLabelValues("resolved").Add(float64(resolved))
	c.compensate.WithLabelValues("failed").Add(float64(failed))
	c.compensate.WithLabelValues("abandoned").Add(float64(abandoned))
}

// SetLedgerAudit publishes the result of the last audit pass.
func (c *CronJobMetrics) SetLedgerAudit(gaps, lowStock int) {
	if c == nil || c.ledgerGaps == nil {
		return
	}
	c.ledgerGaps.Set(float64(gaps))
	c.lowStock.Set(float64(lowStock))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
