// Package httptransport assembles the HTTP router: the shared middleware
// chain, health and metrics endpoints, and the authenticated API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"dicri/internal/platform/metrics"
	"dicri/pkg/platform/httputil"
	authmw "dicri/pkg/platform/middleware/auth"
	"dicri/pkg/platform/middleware/metadata"
	"dicri/pkg/platform/middleware/request"
	"dicri/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config collects everything the router needs.
type Config struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Validator         authmw.JWTValidator
	RevocationChecker authmw.TokenRevocationChecker
	HealthChecks      map[string]HealthCheck
	RequestTimeout    time.Duration
	APIHandlers       []Registrar
}

// NewRouter wires all public endpoints.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))

	r.Route("/api", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		api.Use(authmw.RequireAuth(cfg.Validator, cfg.RevocationChecker, cfg.Logger))
		for _, h := range cfg.APIHandlers {
			h.Register(api)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently and reports 503 when any fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		outcomes := make([]error, len(names))

		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				outcomes[i] = checks[name](ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		for i, name := range names {
			if outcomes[i] != nil {
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		resp := healthResponse{Status: "ok", Checks: results}
		if status != http.StatusOK {
			resp.Status = "degraded"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
