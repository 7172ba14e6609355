package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsguard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "opsguard",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Health check metrics
	healthCheckStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "opsguard",
			Subsystem: "health",
			Name:      "check_status",
			Help:      "Latest status of each health check (0 healthy, 1 warning, 2 critical)",
		},
		[]string{"check"},
	)

	healthCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsguard",
			Subsystem: "health",
			Name:      "check_duration_seconds",
			Help:      "Duration of health checks in seconds",
			Buckets:   []float64{.001, .01, .05, .1, .5, 1, 2, 5, 10},
		},
		[]string{"check"},
	)

	// Alert metrics
	alertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "alert",
			Name:      "created_total",
			Help:      "Total number of alerts created",
		},
		[]string{"type", "severity"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "alert",
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries",
		},
		[]string{"channel", "status"},
	)

	// Backup metrics
	backupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "backup",
			Name:      "created_total",
			Help:      "Total number of backup attempts",
		},
		[]string{"type", "status"},
	)

	backupSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "opsguard",
			Subsystem: "backup",
			Name:      "last_size_bytes",
			Help:      "Size of the most recent backup in bytes",
		},
		[]string{"type"},
	)

	// Cache metrics
	cacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// Job metrics
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "job",
			Name:      "runs_total",
			Help:      "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsguard",
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Duration of scheduled jobs in seconds",
			Buckets:   []float64{.01, .1, .5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"job"},
	)

	slowRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Subsystem: "performance",
			Name:      "slow_requests_total",
			Help:      "Total number of requests over the slow threshold",
		},
		[]string{"path"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetHealthCheckStatus sets the status gauge of a check
func SetHealthCheckStatus(check string, level float64, duration time.Duration) {
	healthCheckStatus.WithLabelValues(check).Set(level)
	healthCheckDuration.WithLabelValues(check).Observe(duration.Seconds())
}

// RecordAlertCreated records a new alert
func RecordAlertCreated(alertType, severity string) {
	alertsCreatedTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordNotification records one delivery attempt
func RecordNotification(channel, status string) {
	notificationsTotal.WithLabelValues(channel, status).Inc()
}

// RecordBackup records a backup attempt and, on success, its size
func RecordBackup(backupType string, success bool, sizeBytes int64) {
	status := "success"
	if !success {
		status = "failed"
	}
	backupsTotal.WithLabelValues(backupType, status).Inc()
	if success {
		backupSize.WithLabelValues(backupType).Set(float64(sizeBytes))
	}
}

// RecordCacheOperation records a cache operation outcome
func RecordCacheOperation(operation, result string) {
	cacheOperations.WithLabelValues(operation, result).Inc()
}

// RecordJobRun records a scheduled job run
func RecordJobRun(job, status string, duration time.Duration) {
	jobRunsTotal.WithLabelValues(job, status).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordSlowRequest records a request over the slow threshold
func RecordSlowRequest(path string) {
	slowRequestsTotal.WithLabelValues(path).Inc()
}
