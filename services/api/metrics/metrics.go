package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydro_db_query_duration_seconds",
			Help:    "Duration of tabular store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_db_query_errors_total",
			Help: "Total number of failed tabular store queries",
		},
		[]string{"driver", "operation"},
	)

	// Measurement web service
	WQRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydro_wq_request_duration_seconds",
			Help:    "Duration of measurement service requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	WQObservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydro_wq_observations_total",
			Help: "Total number of observations parsed from the measurement service",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hydro_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Snapshot
	SnapshotRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hydro_snapshot_rows",
			Help: "Number of rows in the current summary index",
		},
	)

	SnapshotOrphanedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hydro_snapshot_orphaned_rows",
			Help: "Summary rows dropped from the current index for unknown sites",
		},
	)

	SnapshotLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hydro_snapshot_load_duration_seconds",
			Help:    "Time taken to assemble the summary index",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_snapshot_loads_total",
			Help: "Total number of summary index loads",
		},
		[]string{"status"},
	)

	// API
	FilterResultRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hydro_filter_result_rows",
			Help:    "Rows returned by the faceted interval filter",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydro_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveQuery records one store query.
func ObserveQuery(driver, operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(driver, operation).Inc()
	}
}

// RecordSnapshot updates the snapshot gauges after a load attempt.
func RecordSnapshot(rows, orphaned int, took time.Duration, err error) {
	if err != nil {
		SnapshotLoads.WithLabelValues("error").Inc()
		return
	}
	SnapshotLoads.WithLabelValues("success").Inc()
	SnapshotRows.Set(float64(rows))
	SnapshotOrphanedRows.Set(float64(orphaned))
	SnapshotLoadDuration.Observe(took.Seconds())
}
