package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	backendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_calls_total",
			Help: "Calls made to the storefront backend, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	backendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_call_duration_seconds",
			Help:    "Duration of storefront backend calls in seconds, including token refresh.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by kind and result.",
		},
		[]string{"mutation", "result"},
	)
	cartReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_reconciliations_total",
			Help: "Authoritative cart refetches, by whether they replaced or reverted the view.",
		},
		[]string{"result"},
	)
	cartOrphanCouponCleanups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_orphan_coupon_cleanups_total",
			Help: "Automatic removals of a coupon left on an empty cart.",
		},
		[]string{"result"},
	)

	zoneLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_lookups_total",
			Help: "Postal code resolutions by zone, or by failure reason.",
		},
		[]string{"zone"},
	)
)

// ObserveBackendCall records one logical backend call. Outcome is "ok" or an error code.
func ObserveBackendCall(operation, outcome string, duration time.Duration) {
	backendCallsTotal.WithLabelValues(operation, outcome).Inc()
	backendCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func ObserveCartMutation(mutation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}

	cartMutationsTotal.WithLabelValues(mutation, result).Inc()
}

// ObserveCartReconciliation takes "replaced" or "reverted".
func ObserveCartReconciliation(result string) {
	cartReconciliationsTotal.WithLabelValues(result).Inc()
}

func ObserveOrphanCouponCleanup(success bool) {
	result := "removed"
	if !success {
		result = "failed"
	}

	cartOrphanCouponCleanups.WithLabelValues(result).Inc()
}

// ObserveZoneLookup takes the zone id for a hit, or the failure reason.
func ObserveZoneLookup(label string) {
	zoneLookupsTotal.WithLabelValues(label).Inc()
}

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware must wrap the mux directly so the matched pattern is visible.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			// The mux records the matched route on r; unmatched paths share one label.
			pathPattern := r.Pattern
			if pathPattern == "" {
				pathPattern = "unmatched"
			}

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
