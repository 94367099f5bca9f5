package config

import "time"

// AppKind selects how a start-menu entry is backed.
type AppKind string

const (
	AppKindStatic       AppKind = "static"        // Fixed HTML fragment
	AppKindMonitor      AppKind = "monitor"       // Live metrics graphs
	AppKindServerStatus AppKind = "server-status" // Remote service status and controls
)

// AppEntry is one launchable application in the start menu and on the desktop.
type AppEntry struct {
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Icon    string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Kind    AppKind `json:"kind" yaml:"kind"`
	Content string  `json:"content,omitempty" yaml:"content,omitempty"`
	Desktop bool    `json:"desktop" yaml:"desktop"` // Show an icon on the desktop grid
	// Frameless windows have no header and drag from anywhere on the surface.
	Frameless bool `json:"frameless,omitempty" yaml:"frameless,omitempty"`
}

// Geometry is a window placement in desktop pixels.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// WindowConfig controls initial placement, stacking and resize limits.
type WindowConfig struct {
	Default   Geometry            `json:"default" yaml:"default"`
	Overrides map[string]Geometry `json:"overrides" yaml:"overrides"`
	BaseZ     int                 `json:"base_z" yaml:"base_z"`
	MinWidth  int                 `json:"min_width" yaml:"min_width"`
	MinHeight int                 `json:"min_height" yaml:"min_height"`
	MaxWidth  int                 `json:"max_width" yaml:"max_width"`
	MaxHeight int                 `json:"max_height" yaml:"max_height"`
}

// MetricsConfig points the monitor application at a metrics endpoint.
type MetricsConfig struct {
	URL          string        `json:"url" yaml:"url"`
	APIKeyHeader string        `json:"api_key_header" yaml:"api_key_header"`
	APIKey       string        `json:"-" yaml:"api_key,omitempty"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	MaxBackoff   time.Duration `json:"max_backoff" yaml:"max_backoff"`
	History      int           `json:"history" yaml:"history"`

	// Embedded runs the metrics endpoint inside `serve` on ListenPort.
	Embedded   bool `json:"embedded" yaml:"embedded"`
	ListenPort int  `json:"listen_port" yaml:"listen_port"`
}

// ServerStatusConfig points the server-status application at a control API.
type ServerStatusConfig struct {
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// Config represents the application configuration
type Config struct {
	ServerPort   int                `json:"server_port" yaml:"server_port"`
	LogLevel     string             `json:"log_level" yaml:"log_level"`
	LogPretty    bool               `json:"log_pretty" yaml:"log_pretty"`
	Window       WindowConfig       `json:"window" yaml:"window"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
	ServerStatus ServerStatusConfig `json:"server_status" yaml:"server_status"`
	Apps         []AppEntry         `json:"apps" yaml:"apps"`
}

// Defaults returns the built-in configuration written on first run.
func Defaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Window: WindowConfig{
			Default: Geometry{X: 480, Y: 280, Width: 300, Height: 200},
			Overrides: map[string]Geometry{
				"system-monitor": {X: 200, Y: 100, Width: 640, Height: 460},
			},
			BaseZ:     10,
			MinWidth:  200,
			MinHeight: 150,
			MaxWidth:  800,
			MaxHeight: 600,
		},
		Metrics: MetricsConfig{
			URL:          "http://127.0.0.1:5000/api/metrics",
			APIKeyHeader: "access_token",
			PollInterval: time.Second,
			MaxBackoff:   30 * time.Second,
			History:      60,
			ListenPort:   5000,
		},
		ServerStatus: ServerStatusConfig{
			BaseURL:      "http://127.0.0.1:8000",
			PollInterval: 5 * time.Second,
		},
		Apps: DefaultApps(),
	}
}

// DefaultApps returns the stock start menu.
func DefaultApps() []AppEntry {
	return []AppEntry{
		{
			ID:      "about-me",
			Title:   "About Me",
			Icon:    "/images/about-me.png",
			Kind:    AppKindStatic,
			Desktop: true,
			Content: `<div style="padding:20px; text-align:center;"><p>Welcome to my profile!</p><ul><li>Info 1</li><li>Info 2</li></ul></div>`,
		},
		{
			ID:      "portfolio",
			Title:   "My Portfolio",
			Icon:    "/images/portfolio.png",
			Kind:    AppKindStatic,
			Desktop: true,
			Content: `<div style="padding: 20px;"><h2>My Projects</h2><p>Details about projects go here.</p></div>`,
		},
		{ID: "notepad", Title: "Notepad", Icon: "/images/notepad.png", Kind: AppKindStatic, Content: `<h1>Notepad</h1><p>A simple text editor.</p>`},
		{ID: "minesweeper", Title: "Minesweeper", Icon: "/images/minesweeper.png", Kind: AppKindStatic, Content: `<h1>Minesweeper</h1><p>Welcome to the classic minefield!</p>`},
		{ID: "internet", Title: "Internet Explorer", Icon: "/images/internet.png", Kind: AppKindStatic, Content: `<h1>Internet Explorer</h1><p>The best browser... in 1995.</p>`},
		{ID: "system-monitor", Title: "System Monitor", Icon: "/images/monitor.png", Kind: AppKindMonitor, Desktop: true},
		{ID: "minecraft", Title: "Minecraft Server", Icon: "/images/minecraft.png", Kind: AppKindServerStatus},
	}
}
