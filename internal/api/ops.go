package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smartkitchen/internal/api/health"
	"smartkitchen/internal/metrics"
)

// OpsConfig describes the operational listener
type OpsConfig struct {
	ServiceName string
	Version     string
	Services    []string
}

// NewOpsRouter serves probes, metrics and service info
func NewOpsRouter(cfg OpsConfig, healthHandler *health.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Kubernetes probes
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/ready", healthHandler.HandleReadiness)
	r.Get("/live", healthHandler.HandleLiveness)

	r.Handle("/metrics", metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"service":  cfg.ServiceName,
			"version":  cfg.Version,
			"status":   "running",
			"services": cfg.Services,
		})
	})
	return r
}
