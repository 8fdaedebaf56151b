package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/platform/metrics"
	"kycgate/pkg/platform/httputil"
	"kycgate/pkg/platform/middleware/metadata"
	"kycgate/pkg/platform/middleware/requesttime"
)

const readinessTimeout = 2 * time.Second

// pinger is a dependency whose connectivity gates readiness.
type pinger interface {
	PingContext(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newRouter(deps *dependencies, log *slog.Logger) http.Handler {
	checks := map[string]pinger{}
	if deps.db != nil {
		checks["database"] = deps.db
	}
	if deps.redis != nil {
		checks["redis"] = pingFunc(deps.redis.Health)
	}

	r := chi.NewRouter()
	r.Use(metadata.RequestMetadata)
	r.Use(requesttime.Middleware)
	r.Use(metrics.New().Middleware)

	r.Get("/healthz", handleLiveness)
	r.Get("/readyz", handleReadiness(checks, log))
	r.Handle("/metrics", metrics.Handler())

	deps.kycHandler.Register(r)
	deps.flagsHandler.Register(r)
	return r
}

func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadiness pings every configured backing service.
func handleReadiness(checks map[string]pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, check := range checks {
			if err := check.PingContext(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		status["status"] = "ready"
		if !ready {
			code = http.StatusServiceUnavailable
			status["status"] = "not_ready"
		}
		httputil.WriteJSON(w, code, status)
	}
}
