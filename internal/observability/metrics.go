package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	lessonChangesTotal  *prometheus.CounterVec
	archiveUploadsTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram
	loginAttemptsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the ledger API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		lessonChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_lesson_changes_total",
			Help: "Lesson balance changes by type and outcome.",
		}, []string{"type", "outcome"})

		archiveUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_archive_uploads_total",
			Help: "Archive image files processed by outcome.",
		}, []string{"outcome"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_archive_upload_seconds",
			Help:    "Time spent encoding and storing an archive upload batch.",
			Buckets: prometheus.DefBuckets,
		})

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_login_attempts_total",
			Help: "Passcode login attempts by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			lessonChangesTotal,
			archiveUploadsTotal,
			uploadLatency,
			loginAttemptsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// LessonChanges exposes the lesson change counter.
func LessonChanges() *prometheus.CounterVec {
	RegisterMetrics()
	return lessonChangesTotal
}

// ArchiveUploads exposes the per-file upload outcome counter.
func ArchiveUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return archiveUploadsTotal
}

// UploadLatency exposes the upload batch latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// LoginAttempts exposes the login outcome counter.
func LoginAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return loginAttemptsTotal
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
}
