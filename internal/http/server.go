// Package http carries the HTTP transport: the route table, middleware
// chains, and the server lifecycle.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server wraps the standard library server with sane timeouts and a
// graceful shutdown hook.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer builds the server around an assembled handler.
func NewServer(addr string, handler http.Handler, baseLogger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		log: baseLogger.With().Str("component", "http_server").Logger(),
	}
}

// Start blocks serving requests until the listener closes.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.srv.Shutdown(ctx)
}
