package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/vipaii/internal/app"
)

// Streaming handlers (SSE chat, image generation) lift the write deadline per request
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server is the HTTP front of the study assistant
type Server struct {
	app    *app.App
	server *http.Server
}

// New builds the routes and middleware for application
func New(application *app.App) *Server {
	s := &Server{app: application}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port),
		Handler:           s.withConditionalMiddleware(s.setupRoutes()),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s
}

// Handler returns the root handler, middleware included
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener; useful with port 0
func (s *Server) Serve(listener net.Listener) error {
	s.app.Logger.Info().
		Str("address", listener.Addr().String()).
		Str("url", fmt.Sprintf("http://%s/api/health", listener.Addr())).
		Msg("HTTP server listening")

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
