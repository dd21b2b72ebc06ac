// Package observability provides tracing and metrics instrumentation.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected requests at the auth gate by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_auth_failures_total",
		Help: "Total number of requests rejected by the auth gate, by reason",
	}, []string{"reason"})

	// TagReconciliations counts tag lookups during reconciliation by outcome.
	TagReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_tag_reconciliations_total",
		Help: "Total number of tag names reconciled, by outcome",
	}, []string{"outcome"})

	// PostTxRollbacks counts post transactions that were rolled back.
	PostTxRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_tx_rollbacks_total",
		Help: "Total number of post write transactions rolled back, by operation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, table, start)
	}
}
