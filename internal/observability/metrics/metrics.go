// Package metrics exposes Prometheus collectors for the frontend: HTTP traffic,
// the query cache, upstream API calls, and session gating.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/target/cinema-ui/internal/observability/errors"
)

const namespace = "cinema_ui"

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "querycache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by resource and outcome (fresh, stale, miss).",
		},
		[]string{"resource", "outcome"},
	)

	cacheFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "querycache",
			Name:      "fetches_total",
			Help:      "Upstream fetches performed by the query cache.",
		},
		[]string{"resource", "result", "error_class"},
	)

	cacheFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "querycache",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of query cache fetches including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"resource"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests sent to the booking API.",
		},
		[]string{"endpoint", "status"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests sent to the booking API.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"endpoint"},
	)

	gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Routing gate decisions by session status and mounted tree.",
		},
		[]string{"status", "tree"},
	)

	sessionChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_checks_total",
			Help:      "Session restoration checks by result.",
		},
		[]string{"result", "error_class"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by origin and result.",
		},
		[]string{"origin", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		cacheLookups,
		cacheFetches,
		cacheFetchDuration,
		upstreamRequests,
		upstreamDuration,
		gateDecisions,
		sessionChecks,
		tokenRefreshes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := CanonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordCacheLookup counts a query cache lookup outcome.
func RecordCacheLookup(resource, outcome string) {
	cacheLookups.WithLabelValues(orUnknown(resource), outcome).Inc()
}

// RecordCacheFetch records an upstream fetch performed on behalf of the cache.
func RecordCacheFetch(resource string, duration time.Duration, err error) {
	resource = orUnknown(resource)
	result, class := ResultSuccess, ""
	if err != nil {
		result, class = ResultError, obserrors.Classify(err)
	}
	cacheFetches.WithLabelValues(resource, result, class).Inc()
	cacheFetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordUpstreamRequest records a call to the booking API. A zero status
// means the request failed before a response was received.
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	endpoint = orUnknown(endpoint)
	upstreamRequests.WithLabelValues(endpoint, label).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordGateDecision counts which tree the routing gate mounted.
func RecordGateDecision(status, tree string) {
	gateDecisions.WithLabelValues(status, tree).Inc()
}

// RecordSessionCheck counts a session restoration outcome.
func RecordSessionCheck(err error) {
	if err != nil {
		sessionChecks.WithLabelValues(ResultError, obserrors.Classify(err)).Inc()
		return
	}
	sessionChecks.WithLabelValues(ResultSuccess, "").Inc()
}

// RecordTokenRefresh counts an access token refresh attempt. Origin is
// "request", "client" or "background".
func RecordTokenRefresh(origin string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	tokenRefreshes.WithLabelValues(origin, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// CanonicalPath collapses identifiers so label cardinality stays bounded:
// /movie/12 becomes /movie/:id and /fragments/seats/3 becomes /fragments/seats/:id.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "static":
		return "/static"
	case "movie", "movies", "booking":
		if len(parts) > 1 {
			return "/" + parts[0] + "/:id"
		}
	case "fragments":
		if len(parts) > 2 {
			return "/fragments/" + parts[1] + "/:id"
		}
		return "/" + trimmed
	case "login", "register", "logout", "healthz", "auth":
		return "/" + trimmed
	}
	if len(parts) == 1 {
		return "/" + parts[0]
	}
	return "/other"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
