package sysmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giraffenet/webdesk/internal/monitor"
)

type fakeCollector struct {
	m   monitor.Metrics
	err error
}

func (f fakeCollector) Collect(context.Context) (monitor.Metrics, error) {
	return f.m, f.err
}

func TestDerive(t *testing.T) {
	m := Derive(50, 3*gib+gib/2, 16*gib, 21.9)

	if m.MemUsedGB != 3.5 || m.MemTotalGB != 16 {
		t.Errorf("unexpected memory %v / %v", m.MemUsedGB, m.MemTotalGB)
	}
	// 30 + 7.5 rounds half to even.
	if m.TempC != 38 {
		t.Errorf("temp = %v, want 38", m.TempC)
	}
	if m.GPUPercent != 25 {
		t.Errorf("gpu = %v, want 25", m.GPUPercent)
	}
	if m.CPUPercent != 50 || m.MemPercent != 21.9 {
		t.Errorf("raw values must pass through, got %+v", m)
	}

	if got := Derive(100, 0, 0, 0); got.TempC != 45 || got.GPUPercent != 50 {
		t.Errorf("full load derived %+v", got)
	}
}

func TestHandleMetrics(t *testing.T) {
	want := monitor.Metrics{CPUPercent: 12, MemPercent: 40, TempC: 32}
	s := NewServer(fakeCollector{m: want}, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
	var got monitor.Metrics
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestHandleMetricsAPIKey(t *testing.T) {
	s := NewServer(fakeCollector{}, Options{Key: "secret"})

	tests := []struct {
		name string
		key  string
		code int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "nope", http.StatusForbidden},
		{"valid", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
			if tt.key != "" {
				req.Header.Set("access_token", tt.key)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("got %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

func TestHandleMetricsCollectorError(t *testing.T) {
	s := NewServer(fakeCollector{err: errors.New("no /proc")}, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Errorf("expected error body, got %v", body)
	}
}

func TestMonitorClientReadsEndpoint(t *testing.T) {
	s := NewServer(fakeCollector{m: monitor.Metrics{CPUPercent: 77}}, Options{Key: "k"})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	c := monitor.NewClient("access_token", "k", 0)
	m, err := c.FetchMetrics(context.Background(), srv.URL+"/api/metrics")
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if m.CPUPercent != 77 {
		t.Errorf("got %+v", m)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := NewServer(fakeCollector{}, Options{Port: 0})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %v", err)
	}
}
