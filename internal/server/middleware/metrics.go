package middleware

import (
	"net/http"
	"time"

	"github.com/tejeshkinariwala/tightentrade/internal/metrics"
)

// Metrics returns middleware that records request counts and latencies.
// Routes are labeled by the ServeMux pattern that matched, keeping label
// cardinality bounded.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
