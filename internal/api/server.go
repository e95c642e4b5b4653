// Package api provides the musictext REST and websocket API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/musictext/core/cache"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/pipeline"
	"github.com/FocuswithJustin/musictext/internal/logging"
	"github.com/FocuswithJustin/musictext/internal/metrics"
	"github.com/FocuswithJustin/musictext/internal/server"
	"github.com/FocuswithJustin/musictext/internal/store"
)

// Server serves the API. The store and metrics are optional.
type Server struct {
	cfg      Config
	store    *store.Store
	cache    *cache.DocumentCache
	metrics  *metrics.SentryMetrics
	hub      *Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// New creates a server. Start runs it; tests can call RunHub and serve
// Handler directly.
func New(cfg Config, st *store.Store, m *metrics.SentryMetrics) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		cache:   cache.NewDefaultDocumentCache(),
		metrics: m,
		hub:     NewHub(),
		started: time.Now(),
	}
	cors := server.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || cors.OriginAllowed(origin) {
				return true
			}
			logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
			return false
		},
	}
	return s
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// RunHub starts the websocket hub; it stops when ctx is done.
func (s *Server) RunHub(ctx context.Context) {
	go s.hub.Run(ctx)
}

func (s *Server) pipelineOptions(system notation.System) pipeline.Options {
	if system == "" {
		system = s.cfg.DefaultSystem
	}
	return pipeline.Options{
		System:  system,
		Workers: s.cfg.Workers,
		Cache:   s.cache,
		Metrics: s.metrics,
	}
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/systems", s.handleSystems)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentByID)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()
	handler = server.BodyLimitMiddleware(s.cfg.MaxBodyBytes, handler)
	handler = server.SecurityHeadersMiddleware(handler)

	if s.cfg.RateLimitRequests > 0 {
		limiter := NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		})
		handler = limiter.Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.cfg.RateLimitRequests,
			"burst_size", limiter.config.BurstSize)
	}

	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	return logging.CombinedMiddleware(handler)
}

// Start serves the API until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.TLS.Enabled {
		if s.cfg.TLS.CertFile == "" || s.cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(s.cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(s.cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	s.RunHub(hubCtx)

	protocol, wsProtocol := "http", "ws"
	if s.cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", s.cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	storePath := ""
	if s.store != nil {
		storePath = s.store.Path()
	}
	logging.ServerStartup("rest_api", protocol, s.cfg.Port,
		"websocket_protocol", wsProtocol,
		"store", storePath,
		"tracing", s.metrics.Enabled())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
