// Package gateway is the HTTP boundary a chat transport talks to. Every
// route except /health requires an allowed X-Chat-ID.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jguan/nas-assistant/pkg/gateway/middleware"
	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/infra/metrics"
	"github.com/jguan/nas-assistant/pkg/infra/ratelimit"
)

const ContentTypeJSON = "application/json"

// Dispatcher runs one named command.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string, args string) (string, error)
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowChat decides which chats may use the API. Nil denies all.
	AllowChat func(chatID int64) bool
	// Limiter throttles each chat. Nil disables rate limiting.
	Limiter ratelimit.Limiter
}

// DefaultServerConfig sizes WriteTimeout for the slowest generative call.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1:8088",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    210 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

type Server struct {
	dispatcher Dispatcher
	config     ServerConfig
	metrics    *metrics.CommandMetrics
	http       *http.Server
}

func NewServer(dispatcher Dispatcher, config ServerConfig) *Server {
	def := DefaultServerConfig()
	if config.Addr == "" {
		config.Addr = def.Addr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = def.IdleTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = def.ShutdownTimeout
	}
	if config.AllowChat == nil {
		config.AllowChat = func(int64) bool { return false }
	}

	s := &Server{
		dispatcher: dispatcher,
		config:     config,
		metrics:    metrics.NewCommandMetrics(),
	}
	s.http = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Start blocks until the server stops. A Stop that lands before Start
// makes Start return nil immediately.
func (s *Server) Start() error {
	logger.Info("starting HTTP server", slog.String("addr", s.config.Addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Handler returns the full route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/commands/{name}", s.handleCommand)
	api.HandleFunc("POST /api/v1/chat", s.handleChat)
	api.HandleFunc("GET /api/v1/metrics", s.handleMetrics)

	var protected http.Handler = api
	if s.config.Limiter != nil {
		protected = middleware.RateLimit(s.config.Limiter)(protected)
	}
	protected = middleware.Logging()(protected)
	protected = middleware.ChatAuth(s.config.AllowChat)(protected)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/api/", protected)

	var handler http.Handler = mux
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestID()(handler)
	return handler
}

func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func (s *Server) Config() ServerConfig {
	return s.config
}

func (s *Server) Metrics() *metrics.CommandMetrics {
	return s.metrics
}
