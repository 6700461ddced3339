package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"smartkitchen/pkg/logger"
)

// CheckFunc reports the health of one dependency
type CheckFunc func(ctx context.Context) error

// Check is a named dependency probe
type Check struct {
	Name string
	// Optional checks degrade the service instead of failing readiness
	Optional bool
	Probe    CheckFunc
}

// ModelStatus reports which models are loaded
type ModelStatus interface {
	Status() map[string]bool
}

// Handler provides the liveness, readiness and health endpoints of the ops server
type Handler struct {
	log         *logger.Logger
	checks      []Check
	models      ModelStatus
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(serviceName, version string, models ModelStatus, checks ...Check) *Handler {
	return &Handler{
		log:         logger.Get().Component("health"),
		checks:      checks,
		models:      models,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // healthy, degraded, unhealthy
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
	Models    map[string]bool            `json:"models,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK while the process runs
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness fails with 503 when a required dependency is down
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, _, requiredDown := h.run(ctx)
	code := http.StatusOK
	if requiredDown {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", status.Checks)
	}
	writeJSON(w, code, status)
}

// HandleHealth returns every check and the model load state; optional failures degrade
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, anyDown, requiredDown := h.run(ctx)
	code := http.StatusOK
	switch {
	case requiredDown:
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case anyDown:
		status.Status = "degraded"
	}
	if h.models != nil {
		status.Models = h.models.Status()
	}
	writeJSON(w, code, status)
}

func (h *Handler) run(ctx context.Context) (HealthStatus, bool, bool) {
	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentHealth, len(h.checks)),
	}

	var anyDown, requiredDown bool
	for _, c := range h.checks {
		result := h.probe(ctx, c)
		status.Checks[c.Name] = result
		if result.Status != "healthy" {
			anyDown = true
			if !c.Optional {
				requiredDown = true
			}
		}
	}
	return status, anyDown, requiredDown
}

func (h *Handler) probe(ctx context.Context, c Check) ComponentHealth {
	start := time.Now()
	err := c.Probe(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Error("health check failed", "check", c.Name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}
	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

// Names returns the registered check names, sorted
func (h *Handler) Names() []string {
	names := make([]string, len(h.checks))
	for i, c := range h.checks {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
