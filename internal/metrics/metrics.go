// Package metrics exposes Prometheus instrumentation for the dispatch core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actiond_executions_total",
			Help: "Total action executions by terminal-or-running status",
		},
		[]string{"action", "status"},
	)

	dispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actiond_dispatch_errors_total",
			Help: "Total dispatch gateway failures by kind",
		},
		[]string{"kind"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "actiond_dispatch_duration_seconds",
			Help:    "Wall-clock duration of dispatch gateway calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actiond_validation_failures_total",
			Help: "Parameter validation failures by reason",
		},
		[]string{"reason"},
	)
)

// RecordExecution counts an execution reaching the given status.
func RecordExecution(action, status string) {
	executionsTotal.WithLabelValues(action, status).Inc()
}

// RecordDispatchError counts a gateway failure.
// kind is one of: transport, timeout, backend.
func RecordDispatchError(kind string) {
	dispatchErrors.WithLabelValues(kind).Inc()
}

// ObserveDispatch records the duration of a gateway call.
func ObserveDispatch(d time.Duration) {
	dispatchDuration.Observe(d.Seconds())
}

// RecordValidationFailure counts a schema validation failure.
func RecordValidationFailure(reason string) {
	validationFailures.WithLabelValues(reason).Inc()
}
