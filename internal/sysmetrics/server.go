package sysmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/gorilla/mux"
)

// Options configures the metrics endpoint.
type Options struct {
	Port int
	// KeyHeader and Key enable API key checking when Key is set.
	KeyHeader string
	Key       string
}

// Server exposes GET /api/metrics.
type Server struct {
	router    *mux.Router
	collector Collector
	opts      Options
}

// NewServer creates a metrics server backed by collector.
func NewServer(collector Collector, opts Options) *Server {
	if opts.KeyHeader == "" {
		opts.KeyHeader = "access_token"
	}
	s := &Server{
		router:    mux.NewRouter(),
		collector: collector,
		opts:      opts,
	}
	s.router.HandleFunc("/api/metrics", s.handleMetrics).Methods("GET")
	return s
}

// Handler returns the server's HTTP handler with CORS enabled.
func (s *Server) Handler() http.Handler {
	return enableCORS(s.router)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.opts.Key != "" && r.Header.Get(s.opts.KeyHeader) != s.opts.Key {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Invalid API Key"})
		return
	}

	m, err := s.collector.Collect(r.Context())
	if err != nil {
		logger.WithComponent("sysmetrics").Error().Err(err).Msg("Error collecting metrics")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to collect system metrics"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Serve listens on the configured port until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithComponent("sysmetrics").Info().Msgf("Metrics endpoint on http://localhost:%d/api/metrics", s.opts.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "metrics-endpoint"
}
