package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/giraffenet/webdesk/internal/config"
	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "webdesk",
		Short: "webdesk - A desktop environment in the browser",
		Long: `webdesk serves a retro desktop to the browser: draggable, resizable,
stackable windows managed over a taskbar and launched from a start menu.

Features:
  • Server-side window manager with z-order, focus and minimize/restore
  • Taskbar tabs kept in sync with open windows
  • Live system monitor with usage graphs
  • Remote game server status and controls
  • YAML configuration with live reload of the app catalog
  • REST and WebSocket API`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/webdesk/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable console logs")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// WEBDESK_SERVER_PORT, WEBDESK_METRICS_API_KEY, ...
	viper.SetEnvPrefix("webdesk")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("metrics.api_key")
	viper.BindEnv("metrics.url")
	viper.BindEnv("server_status.base_url")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig opens the config file and layers flag and environment
// overrides on top without writing them back.
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	return configMgr, applyOverrides(configMgr.Get()), nil
}

func applyOverrides(cfg *config.Config) *config.Config {
	if port := viper.GetInt("server_port"); viper.IsSet("server_port") && port > 0 {
		cfg.ServerPort = port
	}
	if level := viper.GetString("log_level"); viper.IsSet("log_level") && level != "" {
		cfg.LogLevel = level
	}
	if viper.IsSet("log_pretty") && viper.GetBool("log_pretty") {
		cfg.LogPretty = true
	}
	if key := viper.GetString("metrics.api_key"); key != "" {
		cfg.Metrics.APIKey = key
	}
	if url := viper.GetString("metrics.url"); url != "" {
		cfg.Metrics.URL = url
	}
	if url := viper.GetString("server_status.base_url"); url != "" {
		cfg.ServerStatus.BaseURL = url
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logger.Init(cfg.LogLevel, cfg.LogPretty)
}
