package monitor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func metricsServer(t *testing.T, failing *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing != nil && failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Metrics{
			CPUPercent: 42.5,
			MemUsedGB:  3.2,
			MemTotalGB: 16,
			MemPercent: 20,
			TempC:      36,
			GPUPercent: 21,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSendsAPIKey(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("access_token")
		w.Write([]byte(`{"cpu_percent": 12.5}`))
	}))
	defer srv.Close()

	c := NewClient("access_token", "secret", time.Second)
	m, err := c.FetchMetrics(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if got != "secret" {
		t.Errorf("expected api key header, got %q", got)
	}
	if m.CPUPercent != 12.5 {
		t.Errorf("expected cpu 12.5, got %v", m.CPUPercent)
	}
}

func TestClientNon2xxIsFailure(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			w.Write([]byte(`{}`))
		}))
		_, err := NewClient("", "", time.Second).FetchMetrics(context.Background(), srv.URL)
		srv.Close()
		if err == nil {
			t.Errorf("status %d: expected error", code)
		}
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewClient("", "", time.Second).FetchMetrics(context.Background(), url); err == nil {
		t.Error("expected error from closed server")
	}
}

func TestClientCommand(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{"status": "Minecraft server starting..."}`))
	}))
	defer srv.Close()

	reply, err := NewClient("", "", time.Second).Command(context.Background(), srv.URL+"/", "/minecraft/start")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if method != http.MethodPost || path != "/minecraft/start" {
		t.Errorf("expected POST /minecraft/start, got %s %s", method, path)
	}
	if reply != "Minecraft server starting..." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestSeriesWrapsOldestFirst(t *testing.T) {
	s := NewSeries(3)
	if s.Last() != 0 || len(s.Values()) != 0 {
		t.Fatal("expected empty series")
	}
	for i := 1; i <= 5; i++ {
		s.Push(float64(i))
	}
	got := s.Values()
	want := []float64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if s.Last() != 5 || s.Len() != 3 || s.Cap() != 3 {
		t.Errorf("unexpected last/len/cap %v/%d/%d", s.Last(), s.Len(), s.Cap())
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(time.Second, 30*time.Second, tt.failures); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestPollerStatusTransitions(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	var calls atomic.Int32
	p := NewPoller(PollerConfig{
		WindowID:   "w",
		Interval:   5 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
		Fetch: func(context.Context) error {
			calls.Add(1)
			if fail.Load() {
				return errors.New("boom")
			}
			return nil
		},
	})

	if st, _ := p.Status(); st != StatusConnecting {
		t.Fatalf("expected connecting before the first poll, got %s", st)
	}

	p.Start()
	defer p.Cancel()

	waitFor(t, "disconnected", func() bool {
		st, err := p.Status()
		return st == StatusDisconnected && err != nil && p.Failures() >= 2
	})
	if p.NextDelay() <= 5*time.Millisecond {
		t.Errorf("expected backoff above the interval, got %v", p.NextDelay())
	}

	fail.Store(false)
	waitFor(t, "connected", func() bool {
		st, err := p.Status()
		return st == StatusConnected && err == nil
	})
	if p.Failures() != 0 || p.NextDelay() != 5*time.Millisecond {
		t.Errorf("expected failures reset, got %d (delay %v)", p.Failures(), p.NextDelay())
	}
	if p.LastSuccess().IsZero() {
		t.Error("expected last success time")
	}
}

func TestPollerCancelIdempotent(t *testing.T) {
	p := NewPoller(PollerConfig{
		Interval: time.Millisecond,
		Fetch:    func(context.Context) error { return nil },
	})
	p.Start()
	p.Cancel()
	p.Cancel()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not exit after cancel")
	}
}

func TestPollerStopsWhenWindowGone(t *testing.T) {
	var open atomic.Bool
	open.Store(true)
	var calls atomic.Int32

	p := NewPoller(PollerConfig{
		WindowID: "w",
		Interval: time.Millisecond,
		Fetch:    func(context.Context) error { calls.Add(1); return nil },
		Exists:   func(string) bool { return open.Load() },
	})
	p.Start()
	defer p.Cancel()

	waitFor(t, "first poll", func() bool { return calls.Load() > 0 })
	open.Store(false)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller kept running for a closed window")
	}
}

func TestPollerCancelAbortsInflightFetch(t *testing.T) {
	started := make(chan struct{})
	p := NewPoller(PollerConfig{
		Interval: time.Hour,
		Timeout:  time.Hour,
		Fetch: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	})
	p.Start()
	<-started
	p.Cancel()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was not aborted")
	}
}

func TestMetricsMonitorPollsAndRenders(t *testing.T) {
	srv := metricsServer(t, nil)

	var mu sync.Mutex
	changed := 0
	m := NewMetricsMonitor(MetricsMonitorConfig{
		WindowID: "system-monitor",
		URL:      srv.URL,
		Client:   NewClient("access_token", "", time.Second),
		Interval: 5 * time.Millisecond,
		History:  10,
		Changed: func(string) {
			mu.Lock()
			changed++
			mu.Unlock()
		},
	})
	m.Start()
	defer m.Cancel()

	waitFor(t, "samples", func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.history.CPU.Len() >= 3
	})

	latest, ok := m.Latest()
	if !ok || latest.CPUPercent != 42.5 {
		t.Errorf("unexpected latest sample %+v", latest)
	}
	mu.Lock()
	if changed == 0 {
		t.Error("expected change notifications")
	}
	mu.Unlock()

	html := string(m.HTML("system-monitor"))
	if !strings.Contains(html, "42.5%") || !strings.Contains(html, "/api/windows/system-monitor/graph.png?n=") {
		t.Errorf("unexpected content:\n%s", html)
	}

	data, err := m.PNG()
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != GraphWidth || b.Dy() != GraphHeight {
		t.Errorf("unexpected graph size %v", b)
	}
}

func TestMetricsMonitorShowsConnectionFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := metricsServer(t, &fail)

	m := NewMetricsMonitor(MetricsMonitorConfig{
		WindowID: "system-monitor",
		URL:      srv.URL,
		Client:   NewClient("", "", time.Second),
		Interval: 5 * time.Millisecond,
		History:  10,
	})
	m.Start()
	defer m.Cancel()

	waitFor(t, "failure", func() bool {
		st, _ := m.Poller().Status()
		return st == StatusDisconnected
	})
	html := string(m.HTML("system-monitor"))
	if !strings.Contains(html, "Connection failed") {
		t.Errorf("expected failure notice in content:\n%s", html)
	}
	if _, ok := m.Latest(); ok {
		t.Error("no sample expected while failing")
	}
}

func TestMetricsMonitorCancelStopsStream(t *testing.T) {
	m := NewMetricsMonitor(MetricsMonitorConfig{
		WindowID: "w",
		URL:      "http://127.0.0.1:0",
		Client:   NewClient("", "", time.Second),
		Interval: time.Hour,
	})
	m.Cancel()
	m.Cancel()

	if m.Stream().IsRunning() {
		t.Error("stream must stop on cancel")
	}
	if err := m.Stream().WriteFrame(m.Frame()); !errors.Is(err, ErrStreamStopped) {
		t.Errorf("expected ErrStreamStopped, got %v", err)
	}
}

func TestFrameStreamServesJPEGParts(t *testing.T) {
	s := NewFrameStream("w")
	frame := Render(NewHistory(5), Metrics{}, StatusConnected, 64, 48)
	if err := s.WriteFrame(frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "--frame" {
		t.Fatalf("expected boundary, got %q (%v)", line, err)
	}
	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != "Content-Type: image/jpeg" {
		t.Errorf("unexpected part header %q", line)
	}

	s.Stop()
	if s.Clients() != 0 {
		t.Errorf("expected clients dropped, got %d", s.Clients())
	}
}

func TestFrameStreamStoppedRejectsClients(t *testing.T) {
	s := NewFrameStream("w")
	s.Stop()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGone {
		t.Errorf("expected 410, got %d", rec.Code)
	}
}

func TestStatusMonitor(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.Header.Get("access_token") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/minecraft/status":
			w.Write([]byte(`{"status": "Minecraft server is running."}`))
		default:
			w.Write([]byte(`{"status": "Minecraft server restarting..."}`))
		}
	}))
	defer srv.Close()

	s := NewStatusMonitor(StatusMonitorConfig{
		WindowID: "minecraft",
		Title:    "Minecraft Server",
		BaseURL:  srv.URL,
		Client:   NewClient("access_token", "k", time.Second),
		Interval: 5 * time.Millisecond,
	})
	s.Start()
	defer s.Cancel()

	waitFor(t, "status", func() bool { return s.ServiceStatus() == "Minecraft server is running." })

	reply, err := s.Do(context.Background(), "restart")
	if err != nil || reply != "Minecraft server restarting..." {
		t.Fatalf("Do restart = %q, %v", reply, err)
	}
	if _, err := s.Do(context.Background(), "reboot"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}

	html := string(s.HTML("minecraft"))
	for _, want := range []string{"Minecraft server is running.", "Minecraft server restarting...", `data-app-action="stop"`} {
		if !strings.Contains(html, want) {
			t.Errorf("content missing %q:\n%s", want, html)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range paths {
		if p == "/minecraft/reboot" {
			t.Error("unknown command reached the server")
		}
	}
}

func TestStatusMonitorForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewStatusMonitor(StatusMonitorConfig{
		WindowID: "minecraft",
		BaseURL:  srv.URL,
		Client:   NewClient("access_token", "wrong", time.Second),
		Interval: 5 * time.Millisecond,
	})
	s.Start()
	defer s.Cancel()

	waitFor(t, "failure", func() bool {
		st, _ := s.Poller().Status()
		return st == StatusDisconnected
	})
	if !strings.Contains(string(s.HTML("minecraft")), "Connection failed") {
		t.Error("expected failure notice")
	}
}
