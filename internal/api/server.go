// Package api exposes scan results over HTTP: a small JSON API, a
// websocket feed of completed scans and the Prometheus metrics
// endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/scanner"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Server is the HTTP frontend over a scan runner.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	runner     *scanner.Runner
	hub        *Hub
	logger     *logger.Logger

	metricsEnabled bool
	started        time.Time
}

// New creates the API server and wires the websocket feed to the
// runner's results.
func New(cfg *config.Config, runner *scanner.Runner, log *logger.Logger) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		runner:         runner,
		hub:            NewHub(log),
		logger:         log,
		metricsEnabled: cfg.MetricsEnabled,
		started:        time.Now(),
	}

	s.routes()
	runner.Subscribe(func(result *contracts.ScanResult) {
		s.hub.Broadcast(result)
	})

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebsocket)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scan/last", s.handleLastScan).Methods(http.MethodGet)
	api.HandleFunc("/scan", s.handleTriggerScan).Methods(http.MethodPost)
	api.HandleFunc("/universes", s.handleUniverses).Methods(http.MethodGet)

	if s.metricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("API server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}
