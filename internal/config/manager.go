package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/giraffenet/webdesk/internal/logger"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/webdesk/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "webdesk", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{configPath: path}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = Defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Int("apps", len(m.config.Apps)).
		Msg("Config loaded")

	return m, nil
}

// load reads the configuration from disk. Fields absent from the file keep
// their default values.
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	// A file that names overrides replaces the built-in set instead of
	// merging into it.
	cfg.Window.Overrides = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	normalize(cfg)

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Reload re-reads the file from disk.
func (m *Manager) Reload() error {
	return m.load()
}

// normalize repairs values a hand-edited file may have zeroed out.
func normalize(cfg *Config) {
	d := Defaults()
	if cfg.ServerPort <= 0 {
		cfg.ServerPort = d.ServerPort
	}
	if cfg.Window.Default.Width <= 0 || cfg.Window.Default.Height <= 0 {
		cfg.Window.Default = d.Window.Default
	}
	if cfg.Window.Overrides == nil {
		cfg.Window.Overrides = d.Window.Overrides
	}
	if cfg.Window.MinWidth <= 0 {
		cfg.Window.MinWidth = d.Window.MinWidth
	}
	if cfg.Window.MinHeight <= 0 {
		cfg.Window.MinHeight = d.Window.MinHeight
	}
	if cfg.Window.MaxWidth < cfg.Window.MinWidth {
		cfg.Window.MaxWidth = cfg.Window.MinWidth
	}
	if cfg.Window.MaxHeight < cfg.Window.MinHeight {
		cfg.Window.MaxHeight = cfg.Window.MinHeight
	}
	if cfg.Metrics.PollInterval <= 0 {
		cfg.Metrics.PollInterval = d.Metrics.PollInterval
	}
	if cfg.Metrics.MaxBackoff < cfg.Metrics.PollInterval {
		cfg.Metrics.MaxBackoff = cfg.Metrics.PollInterval
	}
	if cfg.Metrics.History <= 0 {
		cfg.Metrics.History = d.Metrics.History
	}
	if cfg.ServerStatus.PollInterval <= 0 {
		cfg.ServerStatus.PollInterval = d.ServerStatus.PollInterval
	}
	if cfg.Apps == nil {
		cfg.Apps = []AppEntry{}
	}
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}

	cfg := *m.config
	cfg.Apps = append([]AppEntry(nil), m.config.Apps...)
	cfg.Window.Overrides = make(map[string]Geometry, len(m.config.Window.Overrides))
	for k, v := range m.config.Window.Overrides {
		cfg.Window.Overrides[k] = v
	}
	return &cfg
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Update replaces the configuration and saves it
func (m *Manager) Update(cfg *Config) error {
	normalize(cfg)
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// AddApp appends a start-menu entry. IDs must be unique.
func (m *Manager) AddApp(app AppEntry) error {
	if app.ID == "" {
		return fmt.Errorf("app id is required")
	}
	if app.Kind == "" {
		app.Kind = AppKindStatic
	}

	m.mu.Lock()
	for _, existing := range m.config.Apps {
		if existing.ID == app.ID {
			m.mu.Unlock()
			return fmt.Errorf("app %q already exists", app.ID)
		}
	}
	m.config.Apps = append(m.config.Apps, app)
	m.mu.Unlock()

	return m.Save()
}

// RemoveApp deletes a start-menu entry.
func (m *Manager) RemoveApp(id string) error {
	m.mu.Lock()
	found := false
	apps := m.config.Apps[:0]
	for _, app := range m.config.Apps {
		if app.ID == id {
			found = true
			continue
		}
		apps = append(apps, app)
	}
	m.config.Apps = apps
	m.mu.Unlock()

	if !found {
		return fmt.Errorf("app %q not found", id)
	}
	return m.Save()
}

// SetValue assigns one of the scalar settings by its YAML key.
func (m *Manager) SetValue(key, value string) error {
	m.mu.Lock()
	switch key {
	case "server_port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			m.mu.Unlock()
			return fmt.Errorf("invalid port: %s", value)
		}
		m.config.ServerPort = port
	case "log_level":
		m.config.LogLevel = strings.ToLower(value)
	case "log_pretty":
		b, err := strconv.ParseBool(value)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("invalid bool: %s", value)
		}
		m.config.LogPretty = b
	case "metrics.url":
		m.config.Metrics.URL = value
	case "metrics.api_key":
		m.config.Metrics.APIKey = value
	case "server_status.base_url":
		m.config.ServerStatus.BaseURL = value
	default:
		m.mu.Unlock()
		return fmt.Errorf("unknown config key: %s", key)
	}
	m.mu.Unlock()
	return m.Save()
}

// GetValue reads one of the scalar settings by its YAML key.
func (m *Manager) GetValue(key string) (string, error) {
	cfg := m.Get()
	switch key {
	case "server_port":
		return strconv.Itoa(cfg.ServerPort), nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_pretty":
		return strconv.FormatBool(cfg.LogPretty), nil
	case "metrics.url":
		return cfg.Metrics.URL, nil
	case "server_status.base_url":
		return cfg.ServerStatus.BaseURL, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
