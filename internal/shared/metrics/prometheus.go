package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Derivation engine metrics
	derivationPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "derivation_passes_total",
			Help: "Total number of derivation passes by output surface",
		},
		[]string{"surface"},
	)

	derivationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "derivation_duration_seconds",
			Help:    "Derivation pass duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"surface"},
	)

	signalsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_signals_emitted_total",
			Help: "Total number of compliance signals emitted by kind",
		},
		[]string{"kind"},
	)

	malformedDateFields = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "malformed_date_fields_total",
			Help: "Total number of case date fields that failed to parse",
		},
	)

	// Case repository metrics
	casesMutated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_mutated_total",
			Help: "Total number of case mutations by action",
		},
		[]string{"action"},
	)

	payrollSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payroll_syncs_total",
			Help: "Total number of payroll wage-data sync rounds",
		},
		[]string{"status"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordDerivationPass records a derivation pass for one output surface
func RecordDerivationPass(surface string, duration time.Duration) {
	derivationPasses.WithLabelValues(surface).Inc()
	derivationDuration.WithLabelValues(surface).Observe(duration.Seconds())
}

// RecordSignal records an emitted compliance signal
func RecordSignal(kind string) {
	signalsEmitted.WithLabelValues(kind).Inc()
}

// RecordMalformedDateField records a date field that failed to parse
func RecordMalformedDateField() {
	malformedDateFields.Inc()
}

// RecordCaseMutation records a case create/update/delete
func RecordCaseMutation(action string) {
	casesMutated.WithLabelValues(action).Inc()
}

// RecordPayrollSync records a payroll sync round outcome
func RecordPayrollSync(status string) {
	payrollSyncs.WithLabelValues(status).Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
