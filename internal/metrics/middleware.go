// Package metrics defines the service's Prometheus instruments and the
// HTTP middleware that feeds the request-level ones.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "consdex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consdex",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

var registerHTTPOnce sync.Once

// RegisterHTTPMetrics registers the request counter and duration
// histogram with the default registry. Safe to call more than once.
func RegisterHTTPMetrics() {
	registerHTTPOnce.Do(func() {
		prometheus.MustRegister(requestDuration, requestsTotal)
	})
}

// Middleware observes every request's duration and outcome. Requests are
// labeled by chi route pattern rather than the raw URL, so report ids
// and security codes never blow up label cardinality.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}

			code := ww.Status()
			if code == 0 {
				// Handler wrote nothing; net/http answers 200.
				code = http.StatusOK
			}
			status := strconv.Itoa(code)

			requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			requestsTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}
