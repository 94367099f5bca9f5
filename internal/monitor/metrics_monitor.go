package monitor

import (
	"bytes"
	"context"
	"html/template"
	"image"
	"sync"
	"time"
)

// MetricsMonitorConfig configures a MetricsMonitor.
type MetricsMonitorConfig struct {
	WindowID   string
	URL        string
	Client     *Client
	Interval   time.Duration
	MaxBackoff time.Duration
	History    int

	Exists  func(windowID string) bool
	Changed func(windowID string)
}

// MetricsMonitor is the live state behind a system monitor window: it
// polls the metrics endpoint, keeps the usage history and renders graphs.
// It implements window.Content and window.Extension.
type MetricsMonitor struct {
	windowID string
	url      string
	client   *Client
	poller   *Poller
	stream   *FrameStream

	mu      sync.RWMutex
	history *History
	latest  Metrics
	samples int
}

// NewMetricsMonitor creates a monitor; call Start to begin polling.
func NewMetricsMonitor(cfg MetricsMonitorConfig) *MetricsMonitor {
	m := &MetricsMonitor{
		windowID: cfg.WindowID,
		url:      cfg.URL,
		client:   cfg.Client,
		stream:   NewFrameStream(cfg.WindowID),
		history:  NewHistory(cfg.History),
	}
	m.poller = NewPoller(PollerConfig{
		WindowID:   cfg.WindowID,
		Interval:   cfg.Interval,
		MaxBackoff: cfg.MaxBackoff,
		Fetch:      m.fetch,
		Exists:     cfg.Exists,
		Changed: func(id string) {
			m.publishFrame()
			if cfg.Changed != nil {
				cfg.Changed(id)
			}
		},
	})
	return m
}

// Start begins polling.
func (m *MetricsMonitor) Start() { m.poller.Start() }

// Cancel stops polling and disconnects graph stream clients. Idempotent.
func (m *MetricsMonitor) Cancel() {
	m.poller.Cancel()
	m.stream.Stop()
}

// Poller returns the underlying poller.
func (m *MetricsMonitor) Poller() *Poller { return m.poller }

// Stream returns the MJPEG graph stream.
func (m *MetricsMonitor) Stream() *FrameStream { return m.stream }

func (m *MetricsMonitor) fetch(ctx context.Context) error {
	sample, err := m.client.FetchMetrics(ctx, m.url)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.latest = sample
	m.history.Add(sample)
	m.samples++
	m.mu.Unlock()
	return nil
}

// Latest returns the newest sample and whether one was ever received.
func (m *MetricsMonitor) Latest() (Metrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.samples > 0
}

// Frame renders the current graphs.
func (m *MetricsMonitor) Frame() *image.RGBA {
	status, _ := m.poller.Status()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return Render(m.history, m.latest, status, GraphWidth, GraphHeight)
}

// PNG renders the current graphs as PNG.
func (m *MetricsMonitor) PNG() ([]byte, error) {
	return EncodePNG(m.Frame())
}

func (m *MetricsMonitor) publishFrame() {
	if m.stream.Clients() == 0 {
		return
	}
	if err := m.stream.WriteFrame(m.Frame()); err != nil && err != ErrStreamStopped {
		m.poller.log.Warn().Err(err).Msg("Failed to publish graph frame")
	}
}

var metricsTemplate = template.Must(template.New("metrics").Parse(`<div class="system-monitor" data-status="{{.Status}}">
  {{- if eq .Status "disconnected"}}
  <p class="monitor-error">Connection failed: {{.Error}} (retrying in {{.Retry}})</p>
  {{- else if eq .Status "connecting"}}
  <p class="monitor-status">Connecting...</p>
  {{- end}}
  {{- if .HasSample}}
  <table class="monitor-stats">
    <tr><td>CPU</td><td>{{printf "%.1f" .M.CPUPercent}}%</td></tr>
    <tr><td>Memory</td><td>{{printf "%.1f" .M.MemUsedGB}} / {{printf "%.1f" .M.MemTotalGB}} GB ({{printf "%.1f" .M.MemPercent}}%)</td></tr>
    <tr><td>Temperature</td><td>{{printf "%.0f" .M.TempC}} C</td></tr>
    <tr><td>GPU</td><td>{{printf "%.0f" .M.GPUPercent}}%</td></tr>
  </table>
  {{- end}}
  <img class="monitor-graph" src="/api/windows/{{.ID}}/graph.png?n={{.Samples}}" alt="usage graphs">
</div>`))

type metricsView struct {
	ID        string
	Status    Status
	Error     string
	Retry     time.Duration
	HasSample bool
	Samples   int
	M         Metrics
}

// HTML renders the window content. A failing endpoint is reported in place.
func (m *MetricsMonitor) HTML(windowID string) template.HTML {
	status, err := m.poller.Status()

	m.mu.RLock()
	latest, samples := m.latest, m.samples
	m.mu.RUnlock()

	view := metricsView{
		ID:        windowID,
		Status:    status,
		Retry:     m.poller.NextDelay(),
		HasSample: samples > 0,
		Samples:   samples,
		M:         latest,
	}
	if err != nil {
		view.Error = err.Error()
	}

	var buf bytes.Buffer
	if err := metricsTemplate.Execute(&buf, view); err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return template.HTML(buf.String())
}
