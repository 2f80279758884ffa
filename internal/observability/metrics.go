// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analytics API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec

	// Normalization metrics
	RecordsDropped  *prometheus.CounterVec
	DegradedFields  *prometheus.CounterVec
	ChartsSampled   *prometheus.CounterVec
	SeriesDuplicate *prometheus.CounterVec

	// Cache metrics
	CacheLookups       *prometheus.CounterVec
	CacheEntries       prometheus.Gauge
	CacheInvalidations *prometheus.CounterVec

	// Recorder metrics
	RecorderRunsTotal *prometheus.CounterVec
	RecorderDuration  prometheus.Histogram
	PointsArchived    *prometheus.CounterVec
	SnapshotsArchived prometheus.Counter
	LastSuccessfulRun prometheus.Gauge

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WSClients           prometheus.Gauge
	WSMessagesSent      prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "holder_analytics"
	}

	return &Metrics{
		// Analytics API metrics
		APIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of analytics API requests by outcome",
		}, []string{"section", "resource", "outcome"}),
		APIRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Analytics API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"section", "resource"}),

		// Normalization metrics
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "records_dropped_total",
			Help:      "Total number of collection elements dropped for lacking an identifier or timestamp",
		}, []string{"section", "resource"}),
		DegradedFields: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "degraded_fields_total",
			Help:      "Total number of stats fields served as N/A because upstream omitted them or sent non-numeric values",
		}, []string{"section", "field"}),
		ChartsSampled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "charts_sampled_total",
			Help:      "Total number of charts that were downsampled by mode",
		}, []string{"section", "mode"}),
		SeriesDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "series_duplicate_timestamps_total",
			Help:      "Total number of duplicate series timestamps collapsed",
		}, []string{"section"}),

		// Cache metrics
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of query cache lookups by result",
		}, []string{"result"}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of query cache entries",
		}),
		CacheInvalidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Total number of cache entries invalidated by prefix",
		}, []string{"prefix"}),

		// Recorder metrics
		RecorderRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "runs_total",
			Help:      "Total number of recorder runs by status",
		}, []string{"status"}),
		RecorderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "duration_seconds",
			Help:      "Recorder run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		PointsArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "points_archived_total",
			Help:      "Total number of chart points archived by section",
		}, []string{"section"}),
		SnapshotsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "snapshots_archived_total",
			Help:      "Total number of rich-list snapshots archived",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_record_timestamp",
			Help:      "Unix timestamp of last successful recorder run",
		}),

		// HTTP server metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Current number of connected websocket clients",
		}),
		WSMessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total number of websocket notifications broadcast",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAPIRequest records an analytics API call and its outcome.
func RecordAPIRequest(section, resource, outcome string, seconds float64) {
	DefaultMetrics.APIRequestsTotal.WithLabelValues(section, resource, outcome).Inc()
	DefaultMetrics.APIRequestLatency.WithLabelValues(section, resource).Observe(seconds)
}

// RecordDropped adds n dropped collection elements.
func RecordDropped(section, resource string, n int) {
	if n <= 0 {
		return
	}
	DefaultMetrics.RecordsDropped.WithLabelValues(section, resource).Add(float64(n))
}

// RecordDegraded counts each degraded stats field once.
func RecordDegraded(section string, fields []string) {
	for _, f := range fields {
		DefaultMetrics.DegradedFields.WithLabelValues(section, f).Inc()
	}
}

// RecordChartSampled increments the downsampled charts counter.
func RecordChartSampled(section, mode string) {
	DefaultMetrics.ChartsSampled.WithLabelValues(section, mode).Inc()
}

// RecordDuplicates adds n collapsed duplicate timestamps.
func RecordDuplicates(section string, n int) {
	if n <= 0 {
		return
	}
	DefaultMetrics.SeriesDuplicate.WithLabelValues(section).Add(float64(n))
}

// RecordCacheLookup records a cache lookup result: hit, miss or shared.
func RecordCacheLookup(result string) {
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// UpdateCacheEntries updates the cache size gauge.
func UpdateCacheEntries(n int) {
	DefaultMetrics.CacheEntries.Set(float64(n))
}

// RecordCacheInvalidation adds n invalidated entries under prefix.
func RecordCacheInvalidation(prefix string, n int) {
	DefaultMetrics.CacheInvalidations.WithLabelValues(prefix).Add(float64(n))
}

// RecordRecorderRun records a recorder run.
func RecordRecorderRun(status string, durationSeconds float64, unixNow int64) {
	DefaultMetrics.RecorderRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RecorderDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(float64(unixNow))
	}
}

// RecordPointsArchived adds n archived chart points for section.
func RecordPointsArchived(section string, n int) {
	DefaultMetrics.PointsArchived.WithLabelValues(section).Add(float64(n))
}

// RecordSnapshotArchived increments the archived snapshots counter.
func RecordSnapshotArchived() {
	DefaultMetrics.SnapshotsArchived.Inc()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// UpdateWSClients updates the connected websocket clients gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordWSMessage increments the websocket broadcast counter.
func RecordWSMessage() {
	DefaultMetrics.WSMessagesSent.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
