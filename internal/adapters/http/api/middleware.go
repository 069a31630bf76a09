package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/northlux/securelab/internal/auth"
	"github.com/northlux/securelab/pkg/metrics"
)

// ActorMiddleware resolves the bearer token to an actor and stores it on
// the request context. Resolution happens once per request; the import
// loop never re-checks identity mid-batch. Requests without a valid
// actor still reach the handler, which decides whether the operation
// requires one.
func ActorMiddleware(deps Dependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			actor, err := deps.ResolveActor(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "session_expired", ErrSessionExpired)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RateLimitMiddleware applies the shared fixed-window limiter, keyed by
// (operation, actor). Anonymous requests share one bucket per operation.
func RateLimitMiddleware(deps Dependencies, op string, limits LimitConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := op + ":anonymous"
		if actor := auth.FromContext(r.Context()); actor != nil {
			key = op + ":" + actor.ID
		}

		decision := deps.CheckLimit(r.Context(), key, limits.Max, limits.Window)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(decision.ResetSeconds))
			writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(after)
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
