package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := New()
	m.CyclesTotal.Inc()
	m.CyclesTotal.Inc()
	m.OpenPositions.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "fundingbot_cycles_total 2") {
		t.Errorf("cycles counter missing from output:\n%s", body)
	}
	if !strings.Contains(body, "fundingbot_open_positions 3") {
		t.Errorf("open positions gauge missing from output:\n%s", body)
	}
}

func TestMetricsValuesAreIndependent(t *testing.T) {
	// Each value has its own registry, so creating two must not panic
	// on duplicate registration.
	a := New()
	b := New()
	a.CyclesTotal.Inc()
	_ = b
}

func TestHealthDegradedBeforeFirstCycle(t *testing.T) {
	h := NewHealth()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
}

func TestHealthHealthyAfterRecentCycle(t *testing.T) {
	h := NewHealth()
	h.SetLastCycle(time.Now())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealthDegradedAfterStall(t *testing.T) {
	h := NewHealth()
	h.SetLastCycle(time.Now().Add(-10 * time.Minute))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
