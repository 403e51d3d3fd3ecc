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

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func static(name string, status HealthStatus) HealthChecker {
	return NewHealthCheckFunc(name, func(context.Context) ComponentHealth {
		return ComponentHealth{Name: name, Status: status}
	})
}

func TestDetermineSystemHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{"no components", nil, HealthStatusHealthy},
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy},
		{"one degraded", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded},
		{"unhealthy wins", []HealthStatus{HealthStatusDegraded, HealthStatusUnhealthy}, HealthStatusUnhealthy},
		{"unknown", []HealthStatus{HealthStatusHealthy, HealthStatusUnknown}, HealthStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components := map[string]ComponentHealth{}
			for i, s := range tt.statuses {
				name := string(rune('a' + i))
				components[name] = ComponentHealth{Name: name, Status: s}
			}
			assert.Equal(t, tt.want, determineSystemHealth(components))
		})
	}
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("sink", pingerFunc(func(context.Context) error { return nil }))
	assert.Equal(t, HealthStatusHealthy, ok.Check(context.Background()).Status)

	bad := NewPingChecker("sink", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	got := bad.Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, got.Status)
	assert.Equal(t, "connection refused", got.Error)
}

func TestHandler(t *testing.T) {
	hm := NewHealthManager(DefaultHealthConfig(), nil)
	hm.RegisterChecker(static("pipeline", HealthStatusHealthy))

	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthStatusHealthy, body.Status)
	assert.Contains(t, body.Components, "pipeline")

	hm.RegisterChecker(static("sink", HealthStatusUnhealthy))
	rec = httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
