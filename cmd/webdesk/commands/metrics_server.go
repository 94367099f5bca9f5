package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/giraffenet/webdesk/internal/sysmetrics"
	"github.com/spf13/cobra"
)

var metricsServerCmd = &cobra.Command{
	Use:   "metrics-server",
	Short: "Serve host metrics for the system monitor",
	Long: `Serve CPU, memory, temperature and GPU usage as JSON on /api/metrics.

Run this on the machine the system monitor should watch. When an API key
is configured, requests must carry it in the configured header.`,
	Example: `  # Serve on the configured listen port (5000)
  webdesk metrics-server

  # Require an API key
  WEBDESK_METRICS_API_KEY=secret webdesk metrics-server --listen 5001`,
	RunE: runMetricsServer,
}

var metricsListenPort int

func init() {
	rootCmd.AddCommand(metricsServerCmd)

	metricsServerCmd.Flags().IntVar(&metricsListenPort, "listen", 0, "listen port (default from config)")
}

func runMetricsServer(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg)

	port := cfg.Metrics.ListenPort
	if metricsListenPort > 0 {
		port = metricsListenPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := sysmetrics.NewServer(sysmetrics.NewHostCollector(), sysmetrics.Options{
		Port:      port,
		KeyHeader: cfg.Metrics.APIKeyHeader,
		Key:       cfg.Metrics.APIKey,
	})
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.WithComponent("sysmetrics").Info().Msg("Shut down gracefully")
	return nil
}
