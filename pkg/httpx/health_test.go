package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hacklabs/hwlib/pkg/httpx"
)

type stubChecker struct {
	err   error
	delay time.Duration
}

func (s *stubChecker) Ping(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

type stubLive int

func (s stubLive) Len() int { return int(s) }

type healthBody struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	Redis           string `json:"redis"`
	EventBus        string `json:"event_bus"`
	LiveSubscribers *int   `json:"live_subscribers"`
}

func serveHealth(t *testing.T, checks httpx.HealthChecks) (int, healthBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	httpx.HealthHandler(checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var body healthBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, body
}

func TestHealthHandler(t *testing.T) {
	down := &stubChecker{err: errors.New("conn refused")}
	up := &stubChecker{}

	tests := []struct {
		name   string
		checks httpx.HealthChecks
		code   int
		want   healthBody
	}{
		{
			name:   "all healthy",
			checks: httpx.HealthChecks{Database: up, Redis: up, EventBus: up},
			code:   http.StatusOK,
			want:   healthBody{Status: "ok", Database: "ok", Redis: "ok", EventBus: "ok"},
		},
		{
			name:   "database down",
			checks: httpx.HealthChecks{Database: down, Redis: up, EventBus: up},
			code:   http.StatusServiceUnavailable,
			want:   healthBody{Status: "degraded", Database: "unreachable", Redis: "ok", EventBus: "ok"},
		},
		{
			name:   "redis down",
			checks: httpx.HealthChecks{Database: up, Redis: down, EventBus: up},
			code:   http.StatusServiceUnavailable,
			want:   healthBody{Status: "degraded", Database: "ok", Redis: "unreachable", EventBus: "ok"},
		},
		{
			name:   "event bus down",
			checks: httpx.HealthChecks{Database: up, Redis: up, EventBus: down},
			code:   http.StatusServiceUnavailable,
			want:   healthBody{Status: "degraded", Database: "ok", Redis: "ok", EventBus: "unreachable"},
		},
		{
			name:   "redis disabled",
			checks: httpx.HealthChecks{Database: up, EventBus: up},
			code:   http.StatusOK,
			want:   healthBody{Status: "ok", Database: "ok", Redis: "disabled", EventBus: "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, got := serveHealth(t, tt.checks)
			if code != tt.code {
				t.Errorf("code = %d, want %d", code, tt.code)
			}
			if got != tt.want {
				t.Errorf("body = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHealthHandler_LiveCount(t *testing.T) {
	_, got := serveHealth(t, httpx.HealthChecks{
		Database: &stubChecker{},
		EventBus: &stubChecker{},
		Live:     stubLive(3),
	})
	if got.LiveSubscribers == nil || *got.LiveSubscribers != 3 {
		t.Errorf("live_subscribers: got %v, want 3", got.LiveSubscribers)
	}
}

func TestHealthHandler_ChecksInParallel(t *testing.T) {
	slow := &stubChecker{delay: 300 * time.Millisecond}
	start := time.Now()
	code, _ := serveHealth(t, httpx.HealthChecks{Database: slow, Redis: slow, EventBus: slow})
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if elapsed := time.Since(start); elapsed > 800*time.Millisecond {
		t.Errorf("checks took %v; expected them to overlap", elapsed)
	}
}
