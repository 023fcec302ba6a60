package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ukydev/mashinman/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. It must wrap
// the ServeMux directly so the matched route pattern is visible afterwards.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		})
	}
}
