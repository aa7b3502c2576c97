package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"research-writer/api/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config holds server configuration
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

var defaultConfig = Config{
	Address:         ":8080",
	ReadTimeout:     30 * time.Second,
	WriteTimeout:    5 * time.Minute,
	ShutdownTimeout: 30 * time.Second,
}

// Server exposes the research-writer pipeline over HTTP
type Server struct {
	config   Config
	router   *mux.Router
	server   *http.Server
	logger   zerolog.Logger
	pipeline handlers.Pipeline
	gatherer prometheus.Gatherer
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the base logger. Each request gets a child tagged with its id.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts GET /metrics for the given gatherer.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = gatherer }
}

// NewServer creates a new server instance. Zero config fields take defaults.
func NewServer(config Config, pipeline handlers.Pipeline, opts ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}

	if config.Address == "" {
		config.Address = defaultConfig.Address
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaultConfig.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaultConfig.WriteTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaultConfig.ShutdownTimeout
	}

	s := &Server{
		config:   config,
		router:   mux.NewRouter(),
		logger:   zerolog.Nop(),
		pipeline: pipeline,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)

	promptHandler := handlers.NewPromptHandler(s.pipeline, s.logger)

	s.router.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	s.router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	s.router.HandleFunc("/prompt", promptHandler.Prompt).Methods(http.MethodPost, http.MethodOptions)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("address", l.Addr().String()).
			Msg("Starting research-writer server")
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}
