package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockmanager_jobs_processed_total",
			Help: "Total number of jobs processed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	JobQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lockmanager_job_queue_depth",
			Help: "Number of jobs currently buffered on a worker's queue",
		},
		[]string{"worker"},
	)

	ActiveTransactions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockmanager_active_transactions",
			Help: "Number of registered, not-yet-destroyed transactions",
		},
	)

	ActiveLocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockmanager_active_locks",
			Help: "Number of rows with at least one lock holder",
		},
	)

	TransactionAbortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockmanager_transaction_aborts_total",
			Help: "Total number of transactions aborted, by reason",
		},
		[]string{"reason"},
	)

	IntegrityViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockmanager_integrity_violations_total",
			Help: "Total number of bucket digest mismatches detected, by table",
		},
		[]string{"table"},
	)

	SignDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lockmanager_sign_duration_seconds",
			Help:    "Time taken to produce a signed attestation",
			Buckets: prometheus.DefBuckets,
		},
	)

	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockmanager_rpc_requests_total",
			Help: "Total number of RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockmanager_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(JobsProcessedTotal)
	prometheus.MustRegister(JobQueueDepth)
	prometheus.MustRegister(ActiveTransactions)
	prometheus.MustRegister(ActiveLocks)
	prometheus.MustRegister(TransactionAbortsTotal)
	prometheus.MustRegister(IntegrityViolationsTotal)
	prometheus.MustRegister(SignDuration)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
