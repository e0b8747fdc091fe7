package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	exportsTotal          *prometheus.CounterVec
	exportDurationSeconds *prometheus.HistogramVec
	importRowsTotal       *prometheus.CounterVec

	uploadRequestsTotal *prometheus.CounterVec
	uploadRejectedTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram

	eventsPublishedTotal *prometheus.CounterVec
	eventStreamClients   prometheus.Gauge

	cacheLookupsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_exports_total",
			Help: "Generated export artifacts partitioned by kind and outcome.",
		}, []string{"kind", "outcome"})

		exportDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sala_export_duration_seconds",
			Help:    "Time spent rendering workbooks and reports.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"kind"})

		importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_grade_import_rows_total",
			Help: "Grade rows processed by workbook imports.",
		}, []string{"result"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_uploads_total",
			Help: "Stored uploads partitioned by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_uploads_rejected_total",
			Help: "Rejected uploads partitioned by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sala_upload_duration_seconds",
			Help:    "Upload processing latency.",
			Buckets: prometheus.DefBuckets,
		})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_invalidation_events_total",
			Help: "Invalidation events delivered to local subscribers.",
		}, []string{"topic", "origin"})

		eventStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sala_event_stream_clients",
			Help: "Connected SSE and websocket event subscribers.",
		})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sala_cache_lookups_total",
			Help: "Redis cache lookups partitioned by cache and result.",
		}, []string{"cache", "result"})

		prometheus.MustRegister(
			adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			exportsTotal, exportDurationSeconds, importRowsTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatency,
			eventsPublishedTotal, eventStreamClients,
			cacheLookupsTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// Exports counts generated workbooks and reports.
func Exports() *prometheus.CounterVec {
	RegisterMetrics()
	return exportsTotal
}

// ExportDuration observes rendering time per export kind.
func ExportDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return exportDurationSeconds
}

// ImportRows counts imported grade rows by result (created, updated, failed).
func ImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return importRowsTotal
}

// UploadRequests counts stored uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload processing time.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// EventsPublished counts delivered invalidation events.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EventStreamClients tracks connected event subscribers.
func EventStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return eventStreamClients
}

// CacheLookups counts cache hits and misses.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}
