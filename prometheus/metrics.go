package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"timetracker-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timetracker_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timetracker_register_total",
			Help: "Total number of signups",
		},
	)

	// Timer lifecycle counters
	TimerStartCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timetracker_timer_started_total",
			Help: "Total number of timers started",
		},
	)

	TimerStopCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timetracker_timer_stopped_total",
			Help: "Total number of timers stopped",
		},
	)

	TimerConflictCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_timer_conflicts_total",
			Help: "Total number of rejected timer transitions",
		},
		[]string{"type"}, // "already_running", "already_stopped"
	)

	// Entry operation counter
	EntryOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_entry_operations_total",
			Help: "Total number of time entry operations",
		},
		[]string{"operation"}, // "update", "delete", "list", "running"
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetracker_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetracker_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetracker_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// InitMetrics registers all metrics with the default registry
func InitMetrics(cfg *config.Config) {
	prometheus.MustRegister(
		LoginCounter,
		RegisterCounter,
		TimerStartCounter,
		TimerStopCounter,
		TimerConflictCounter,
		EntryOperationCounter,
		AuthErrorCounter,
		HTTPRequestCounter,
		RequestDuration,
	)
	prometheus.MustRegister(DBOperationDuration)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordTimerConflict increments the timer conflict counter
func RecordTimerConflict(conflictType string) {
	TimerConflictCounter.WithLabelValues(conflictType).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when invoked; use with defer.
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware records request counts and latencies per endpoint
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(path, method, statusStr).Inc()
			RequestDuration.WithLabelValues(path, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
