package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/netlogics/ollama-router/pkg/config"
	"github.com/netlogics/ollama-router/pkg/proxy/middleware"
)

// Server is the HTTPS front end for the proxy.
type Server struct {
	config       *config.Config
	version      string
	engine       http.Handler
	metrics      http.Handler
	tlsConfig    *tls.Config
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options configures a Server.
type Options struct {
	// Config is the full router configuration.
	Config *config.Config

	// Engine handles every path not served by the server itself.
	Engine http.Handler

	// Metrics serves the metrics endpoint. Ignored when metrics are
	// disabled in the configuration.
	Metrics http.Handler

	// TLSConfig is the listener TLS configuration, typically built from
	// a certificate reloader so rotations take effect live.
	TLSConfig *tls.Config

	// Version is reported by the health endpoint.
	Version string
}

// New creates a server. It does not listen until Start is called.
func New(opts Options) *Server {
	return &Server{
		config:       opts.Config,
		version:      opts.Version,
		engine:       opts.Engine,
		metrics:      opts.Metrics,
		tlsConfig:    opts.TLSConfig,
		logger:       slog.Default().With("component", "server"),
		// Buffered so a Stop issued before Start reaches its select is
		// queued rather than silently discarded.
		shutdownChan: make(chan struct{}, 1),
	}
}

// Start starts the HTTPS listener and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:    s.config.Server.ListenAddress(),
		Handler: s.Handler(),
		// No WriteTimeout: streamed completions legitimately run for
		// minutes and are bounded by the per-route deadline instead.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         s.tlsConfig,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server",
			"address", s.config.Server.ListenAddress(),
			"backend", s.config.Ollama.BaseURL,
		)

		// Certificate material comes from the TLS config; the file
		// arguments are intentionally empty.
		err := s.httpServer.ListenAndServeTLS("", "")
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config.Server.ShutdownTimeout.Std()
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// Stop requests a shutdown from outside the Start goroutine.
func (s *Server) Stop() {
	select {
	case s.shutdownChan <- struct{}{}:
	default:
	}
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler with the full middleware
// chain applied. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	metricsCfg := s.config.Telemetry.Metrics
	if s.metrics != nil && metricsCfg.Enabled != nil && *metricsCfg.Enabled {
		mux.Handle(metricsCfg.Path, s.metrics)
	}

	// Everything else goes to the backend.
	mux.Handle("/", s.engine)

	var handler http.Handler = mux
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// handleHealth reports proxy liveness. It never consults the backend:
// the proxy being up is a separate fact from Ollama being up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}
