package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"
)

// ErrUnknownCommand is returned for a server action that is not offered.
var ErrUnknownCommand = errors.New("unknown server command")

// Commands are the control actions a StatusMonitor offers.
var Commands = []string{"start", "stop", "restart"}

// StatusMonitorConfig configures a StatusMonitor.
type StatusMonitorConfig struct {
	WindowID string
	Title    string
	BaseURL  string
	Service  string
	Client   *Client
	Interval time.Duration

	Exists  func(windowID string) bool
	Changed func(windowID string)
}

// StatusMonitor polls a remote service's status endpoint and forwards
// start, stop and restart commands to it. It implements window.Content and
// window.Extension.
type StatusMonitor struct {
	cfg    StatusMonitorConfig
	poller *Poller

	mu         sync.RWMutex
	status     string
	lastAction string
}

// NewStatusMonitor creates a monitor; call Start to begin polling.
func NewStatusMonitor(cfg StatusMonitorConfig) *StatusMonitor {
	if cfg.Service == "" {
		cfg.Service = "minecraft"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	s := &StatusMonitor{cfg: cfg}
	s.poller = NewPoller(PollerConfig{
		WindowID:   cfg.WindowID,
		Interval:   cfg.Interval,
		MaxBackoff: cfg.Interval * 8,
		Fetch:      s.fetch,
		Exists:     cfg.Exists,
		Changed:    cfg.Changed,
	})
	return s
}

// Start begins polling.
func (s *StatusMonitor) Start() { s.poller.Start() }

// Cancel stops polling. Idempotent.
func (s *StatusMonitor) Cancel() { s.poller.Cancel() }

// Poller returns the underlying poller.
func (s *StatusMonitor) Poller() *Poller { return s.poller }

func (s *StatusMonitor) path(command string) string {
	return fmt.Sprintf("/%s/%s", s.cfg.Service, command)
}

func (s *StatusMonitor) fetch(ctx context.Context) error {
	status, err := s.cfg.Client.Command(ctx, s.cfg.BaseURL, s.path("status"))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return nil
}

// ServiceStatus returns the last reported status line.
func (s *StatusMonitor) ServiceStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Do sends one of Commands to the service and records its reply.
func (s *StatusMonitor) Do(ctx context.Context, command string) (string, error) {
	known := false
	for _, c := range Commands {
		if c == command {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	reply, err := s.cfg.Client.Command(ctx, s.cfg.BaseURL, s.path(command))
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", s.cfg.Service, command, err)
	}

	s.mu.Lock()
	s.lastAction = reply
	s.mu.Unlock()
	return reply, nil
}

var statusTemplate = template.Must(template.New("status").Parse(`<div class="server-status" data-status="{{.Conn}}">
  <h2>{{.Title}}</h2>
  {{- if eq .Conn "disconnected"}}
  <p class="monitor-error">Connection failed: {{.Error}}</p>
  {{- else if eq .Conn "connecting"}}
  <p class="monitor-status">Checking status...</p>
  {{- else}}
  <p class="monitor-status">{{.Status}}</p>
  {{- end}}
  {{- if .LastAction}}
  <p class="monitor-action">{{.LastAction}}</p>
  {{- end}}
  <div class="server-controls">
    {{- range .Commands}}
    <button class="windows-button" data-app-action="{{.}}" data-window="{{$.ID}}">{{.}}</button>
    {{- end}}
  </div>
</div>`))

// HTML renders the window content.
func (s *StatusMonitor) HTML(windowID string) template.HTML {
	conn, err := s.poller.Status()

	s.mu.RLock()
	view := struct {
		ID         string
		Title      string
		Conn       Status
		Error      string
		Status     string
		LastAction string
		Commands   []string
	}{
		ID:         windowID,
		Title:      s.cfg.Title,
		Conn:       conn,
		Status:     s.status,
		LastAction: s.lastAction,
		Commands:   Commands,
	}
	s.mu.RUnlock()
	if err != nil {
		view.Error = err.Error()
	}

	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, view); err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return template.HTML(buf.String())
}
