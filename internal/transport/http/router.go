// Package httptransport assembles the HTTP surface: the shared middleware
// chain, operational endpoints, and the authenticated module routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arbor/internal/platform/metrics"
	"arbor/internal/platform/middleware"
	"arbor/pkg/platform/httputil"
	authmw "arbor/pkg/platform/middleware/auth"
	"arbor/pkg/platform/middleware/request"
	"arbor/pkg/platform/middleware/requesttime"
)

// Module mounts its routes on the authenticated router.
type Module interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Validator authmw.JWTValidator
	Checks    map[string]HealthCheck
	// RateLimit runs after authentication. Nil disables it.
	RateLimit func(http.Handler) http.Handler
	Modules   []Module
}

const healthTimeout = 2 * time.Second

func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))

	r.Get("/healthz", healthHandler(cfg.Checks))
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		for _, m := range cfg.Modules {
			m.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
