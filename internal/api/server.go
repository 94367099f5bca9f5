package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/giraffenet/webdesk/internal/apps"
	"github.com/giraffenet/webdesk/internal/config"
	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/giraffenet/webdesk/internal/monitor"
	"github.com/giraffenet/webdesk/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

//go:embed web
var webFiles embed.FS

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	windowMgr *window.Manager
	apps      *apps.Registry
	configMgr *config.Manager
	upgrader  websocket.Upgrader
	port      int
}

// NewServer creates a new API server
func NewServer(windowMgr *window.Manager, registry *apps.Registry, configMgr *config.Manager, port int) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		windowMgr: windowMgr,
		apps:      registry,
		configMgr: configMgr,
		port:      port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestID)

	api := s.router.PathPrefix("/api").Subrouter()

	// Desktop state
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/desktop", s.handleGetDesktop).Methods("GET")
	api.HandleFunc("/stream", s.handleStream)
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	// Applications
	api.HandleFunc("/apps", s.handleGetApps).Methods("GET")
	api.HandleFunc("/apps/{app}/launch", s.handleLaunch).Methods("POST")

	// Window operations
	api.HandleFunc("/windows/{id}/{op:close|minimize|front}", s.handleWindowOp).Methods("POST")
	api.HandleFunc("/windows/{id}/actions/{action}", s.handleAction).Methods("POST")
	api.HandleFunc("/windows/{id}/graph.png", s.handleGraphPNG).Methods("GET")
	api.HandleFunc("/windows/{id}/graph.mjpeg", s.handleGraphStream).Methods("GET")
	api.HandleFunc("/taskbar/{id}/click", s.handleTabClick).Methods("POST")
	api.HandleFunc("/pointer/{phase:down|move|up}", s.handlePointer).Methods("POST")

	// Browser client
	static, err := fs.Sub(webFiles, "web")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Serve listens on the configured port until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithComponent("api").Info().Msgf("Starting server on http://localhost:%d", s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "api"
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

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

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"version":  Version,
		"degraded": s.windowMgr.Degraded(),
	})
}

func (s *Server) handleGetDesktop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.windowMgr.State())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleGetApps(w http.ResponseWriter, r *http.Request) {
	list := s.apps.List()
	infos := make([]apps.AppInfo, 0, len(list))
	for _, app := range list {
		infos = append(infos, app.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["app"]
	if err := s.apps.Launch(id); err != nil {
		if errors.Is(err, apps.ErrUnknownApp) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	snap, ok := s.windowMgr.Window(id)
	if !ok {
		// Closed by someone else between launch and lookup.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleWindowOp runs close, minimize or front. Unknown windows are
// accepted and ignored, like the manager operations themselves.
func (s *Server) handleWindowOp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	switch vars["op"] {
	case "close":
		s.windowMgr.Close(id)
	case "minimize":
		s.windowMgr.Minimize(id)
	case "front":
		s.windowMgr.BringToFront(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTabClick(w http.ResponseWriter, r *http.Request) {
	s.windowMgr.HandleTabClick(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	msg, err := s.apps.Do(r.Context(), vars["id"], vars["action"])
	switch {
	case errors.Is(err, apps.ErrUnknownApp), errors.Is(err, apps.ErrUnknownAction):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, apps.ErrNotOpen):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": msg})
	}
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var ev window.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch mux.Vars(r)["phase"] {
	case "down":
		s.windowMgr.PointerDown(ev)
	case "move":
		s.windowMgr.PointerMove(ev)
	case "up":
		s.windowMgr.PointerUp(ev)
	}
	w.WriteHeader(http.StatusNoContent)
}

type graphSource interface {
	PNG() ([]byte, error)
	Stream() *monitor.FrameStream
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) (graphSource, bool) {
	id := mux.Vars(r)["id"]
	inst, ok := s.apps.Instance(id)
	if !ok {
		http.Error(w, "window not open", http.StatusNotFound)
		return nil, false
	}
	g, ok := inst.(graphSource)
	if !ok {
		http.Error(w, "window has no graph", http.StatusNotFound)
		return nil, false
	}
	return g, true
}

func (s *Server) handleGraphPNG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.graph(w, r)
	if !ok {
		return
	}
	data, err := g.PNG()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (s *Server) handleGraphStream(w http.ResponseWriter, r *http.Request) {
	g, ok := s.graph(w, r)
	if !ok {
		return
	}
	g.Stream().ServeHTTP(w, r)
}
