package metrics

import (
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion jobs

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wot_api_calls_total",
			Help: "Total number of outbound API calls",
		},
		[]string{"host", "status"},
	)

	// Job metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wot_job_runs_total",
			Help: "Total number of ingestion job runs",
		},
		[]string{"job", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wot_job_duration_seconds",
			Help:    "Duration of ingestion job runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"job"},
	)

	LastSuccessfulSync = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wot_last_successful_sync_timestamp",
			Help: "Timestamp of the last successful run per job",
		},
		[]string{"job"},
	)

	// Persistence metrics
	RowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wot_rows_upserted_total",
			Help: "Total number of rows upserted per table",
		},
		[]string{"table"},
	)

	BatchesRolledBack = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wot_batches_rolled_back_total",
			Help: "Total number of commit batches rolled back",
		},
	)

	// Reconciliation metrics
	UnresolvedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wot_unresolved_items_total",
			Help: "Total number of scraped item names that could not be resolved",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wot_cache_hits_total",
			Help: "Total number of item-detail cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wot_cache_misses_total",
			Help: "Total number of item-detail cache misses",
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wot_system_uptime_seconds",
			Help: "Worker uptime in seconds",
		},
	)
)

// RecordAPICall records an outbound API call, labeled by host only to keep
// cardinality bounded
func RecordAPICall(rawURL, status string) {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	APICallsTotal.WithLabelValues(host, status).Inc()
}

// RecordJob records a job run outcome and duration
func RecordJob(job, status string, seconds float64) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(seconds)

	if status == "success" {
		LastSuccessfulSync.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordUpserts records rows written to a table
func RecordUpserts(table string, count int) {
	RowsUpserted.WithLabelValues(table).Add(float64(count))
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}
