package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticModels map[string]bool

func (m staticModels) Status() map[string]bool { return m }

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func decode(t *testing.T, rec *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return status
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		code   int
		status string
	}{
		{"all up", []Check{{Name: "redis", Optional: true, Probe: up}}, http.StatusOK, "healthy"},
		{"optional down", []Check{{Name: "redis", Optional: true, Probe: down}}, http.StatusOK, "degraded"},
		{"required down", []Check{{Name: "models", Probe: down}, {Name: "redis", Optional: true, Probe: up}}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("smartkitchen", "test", staticModels{"sales_model": true}, tt.checks...)
			rec := httptest.NewRecorder()
			h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			status := decode(t, rec)
			assert.Equal(t, tt.status, status.Status)
			assert.Len(t, status.Checks, len(tt.checks))
			assert.True(t, status.Models["sales_model"])
		})
	}
}

func TestHandleReadiness_IgnoresOptional(t *testing.T) {
	h := New("smartkitchen", "test", nil, Check{Name: "clickhouse", Optional: true, Probe: down})
	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "connection refused", decode(t, rec).Checks["clickhouse"].Error)
}

func TestHandleLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	New("smartkitchen", "test", nil).HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestNames(t *testing.T) {
	h := New("smartkitchen", "test", nil, Check{Name: "redis", Probe: up}, Check{Name: "clickhouse", Probe: up})
	assert.Equal(t, []string{"clickhouse", "redis"}, h.Names())
}
