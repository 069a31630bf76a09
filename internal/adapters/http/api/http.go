// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/northlux/securelab/internal/auth"
	"github.com/northlux/securelab/internal/domain/model"
	"github.com/northlux/securelab/internal/domain/ratelimit"
	"github.com/northlux/securelab/pkg/metrics"
)

// Request body size ceiling; batches are structurally capped by the
// validator, this only guards the decoder.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service package.
type Dependencies interface {
	// Import runs a full batch import; the actor must already be on ctx.
	Import(ctx context.Context, raw []byte) (*model.ImportSummary, error)

	// Preview validates a batch without side effects.
	Preview(ctx context.Context, raw []byte) model.ValidationReport

	// ResolveActor maps a bearer token to an actor; nil means expired.
	ResolveActor(ctx context.Context, token string) (*auth.Actor, error)

	// CheckLimit applies the shared fixed-window rate limiter.
	CheckLimit(ctx context.Context, key string, max int, window time.Duration) ratelimit.Decision
}

// StatsProvider exposes service statistics for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// LimitConfig carries the rate limiter's per-key budget.
type LimitConfig struct {
	Max    int
	Window time.Duration
}

// Server wires HTTP routes for the import API.
type Server struct {
	deps   Dependencies
	stats  StatsProvider
	limits LimitConfig
}

// NewServer creates an API server around the service dependencies.
func NewServer(deps Dependencies, stats StatsProvider, limits LimitConfig) *Server {
	return &Server{deps: deps, stats: stats, limits: limits}
}

// Register attaches all HTTP routes to r. Every operation goes through
// the metrics middleware; mutating and read API operations additionally
// pass actor resolution and the shared rate limiter.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Get("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ActorMiddleware(s.deps))
		r.Post("/signals/import", MetricsMiddleware(
			RateLimitMiddleware(s.deps, "import", s.limits, s.handleImport), "signals_import"))
		r.Post("/signals/validate", MetricsMiddleware(
			RateLimitMiddleware(s.deps, "validate", s.limits, s.handleValidate), "signals_validate"))
		r.Get("/stats", MetricsMiddleware(
			RateLimitMiddleware(s.deps, "stats", s.limits, s.handleStats), "stats"))
	})
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
