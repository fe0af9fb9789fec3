package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/flash-arbitrage/internal/logger"
)

func TestServer_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		path       string
		wantStatus int
	}{
		{
			name:       "live_always_ok",
			checks:     map[string]CheckFunc{"down": func(context.Context) (bool, string) { return false, "down" }},
			path:       "/live",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready_all_healthy",
			checks:     map[string]CheckFunc{"book": func(context.Context) (bool, string) { return true, "" }},
			path:       "/ready",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready_one_unhealthy",
			checks:     map[string]CheckFunc{"chain": func(context.Context) (bool, string) { return false, "dial failed" }},
			path:       "/ready",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "health_no_checks",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "test", logger.NewNop())
			for name, check := range tt.checks {
				s.RegisterCheck(name, check)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_HealthReportsDegradedChecks(t *testing.T) {
	s := NewServer(0, "v1.2.3", logger.NewNop())
	s.RegisterCheck("book", func(context.Context) (bool, string) { return true, "4 pools" })
	s.RegisterCheck("chain", func(context.Context) (bool, string) { return false, "dial failed" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Version != "v1.2.3" {
		t.Errorf("version = %q", status.Version)
	}
	if !status.Checks["book"].Healthy || status.Checks["chain"].Healthy {
		t.Errorf("checks = %+v", status.Checks)
	}
	if status.Checks["chain"].Message != "dial failed" {
		t.Errorf("chain message = %q", status.Checks["chain"].Message)
	}
}
