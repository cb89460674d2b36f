package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hacklabs/hwlib/pkg/httpx"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSON(w, http.StatusCreated, map[string]string{"token": "ABC"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	headers := map[string]string{
		"Content-Type":           "application/json; charset=utf-8",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-store",
	}
	for k, want := range headers {
		if got := w.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["token"] != "ABC" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.NoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSONError(w, http.StatusGone, "reservation has expired")

	if w.Code != http.StatusGone {
		t.Errorf("expected 410, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["error"] != "reservation has expired" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestSafeError(t *testing.T) {
	err := errors.New("pq: connection refused")
	tests := []struct {
		status     int
		production bool
		want       string
	}{
		{http.StatusInternalServerError, true, "Internal Server Error"},
		{http.StatusServiceUnavailable, true, "Service Unavailable"},
		{http.StatusInternalServerError, false, "pq: connection refused"},
		{http.StatusConflict, true, "pq: connection refused"},
	}
	for _, tt := range tests {
		if got := httpx.SafeError(err, tt.status, tt.production); got != tt.want {
			t.Errorf("SafeError(%d, %v) = %q, want %q", tt.status, tt.production, got, tt.want)
		}
	}
}
