package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giraffenet/webdesk/internal/api"
	"github.com/giraffenet/webdesk/internal/apps"
	"github.com/giraffenet/webdesk/internal/config"
	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/giraffenet/webdesk/internal/monitor"
	"github.com/giraffenet/webdesk/internal/sysmetrics"
	"github.com/giraffenet/webdesk/internal/window"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webdesk server",
	Long: `Start the webdesk HTTP server.

The server owns the window manager, serves the browser client and the
REST/WebSocket API, and optionally runs the metrics endpoint the system
monitor polls.`,
	Example: `  # Start server on default port (8080)
  webdesk serve

  # Start server on custom port
  webdesk serve --port 9090

  # Also serve host metrics on :5000
  webdesk serve --embedded-metrics

  # Start with debug logging
  webdesk serve --log-level debug --log-pretty`,
	RunE: runServe,
}

var serveEmbeddedMetrics bool

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveEmbeddedMetrics, "embedded-metrics", false, "serve host metrics from this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg)
	log := logger.WithComponent("serve")

	log.Info().
		Str("path", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	windowMgr := window.NewManager(window.NewDesktop(), window.NewTabStrip(), apps.ManagerOptions(cfg.Window))
	client := monitor.NewClient(cfg.Metrics.APIKeyHeader, cfg.Metrics.APIKey, 10*time.Second)

	registry, err := apps.Build(cfg, windowMgr, client)
	if err != nil {
		return fmt.Errorf("failed to build app catalog: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := suture.New("webdesk", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Fields(e.Map()).Msg(e.String())
		},
	})
	sup.Add(api.NewServer(windowMgr, registry, configMgr, cfg.ServerPort))
	sup.Add(&catalogReloader{configMgr: configMgr, registry: registry})

	if serveEmbeddedMetrics || cfg.Metrics.Embedded {
		sup.Add(sysmetrics.NewServer(sysmetrics.NewHostCollector(), sysmetrics.Options{
			Port:      cfg.Metrics.ListenPort,
			KeyHeader: cfg.Metrics.APIKeyHeader,
			Key:       cfg.Metrics.APIKey,
		}))
	}

	log.Info().
		Int("port", cfg.ServerPort).
		Msgf("webdesk is running at http://localhost:%d (Ctrl+C to stop)", cfg.ServerPort)

	err = sup.Serve(ctx)

	// Stop every live poller before exiting.
	for _, w := range windowMgr.Windows() {
		windowMgr.Close(w.ID)
	}

	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	log.Info().Msg("Shut down gracefully")
	return nil
}

// catalogReloader rebuilds the app catalog whenever the config file changes.
type catalogReloader struct {
	configMgr *config.Manager
	registry  *apps.Registry
}

func (c *catalogReloader) Serve(ctx context.Context) error {
	updates, err := c.configMgr.Watch(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("config")
	for cfg := range updates {
		if err := c.registry.Load(applyOverrides(cfg)); err != nil {
			log.Warn().Err(err).Msg("Keeping previous app catalog")
			continue
		}
		log.Info().Int("apps", len(cfg.Apps)).Msg("App catalog reloaded")
	}
	return ctx.Err()
}

func (c *catalogReloader) String() string {
	return "catalog-reloader"
}
