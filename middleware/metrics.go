// ABOUTME: Prometheus instrumentation middleware
// ABOUTME: Records request counts and latency per registered route

package middleware

import (
	"net/http"
	"time"

	"github.com/markalston/inference-capacity-planner/metrics"
)

// Instrument records each request against route, the registered pattern
func Instrument(route string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next(wrapped, r)

			metrics.ObserveHTTP(r.Method, route, wrapped.statusCode, time.Since(start))
		}
	}
}
