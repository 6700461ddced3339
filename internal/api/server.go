package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// ServerConfig contains configuration for one HTTP listener
type ServerConfig struct {
	Name string
	Port int
	// WriteTimeout bounds slow handlers such as image uploads
	WriteTimeout time.Duration
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	name       string
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates a server for handler
func NewServer(cfg ServerConfig, handler http.Handler) *Server {
	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	log := logger.Get().Component("http").With("server", cfg.Name)
	log.Infof("HTTP server configured on port %d", port)

	return &Server{
		name: cfg.Name,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// Name returns the server name
func (s *Server) Name() string {
	return s.name
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for HTTP requests.
// Blocks until the server is stopped or fails.
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "http server %s failed", s.name)
	}
	return nil
}

// Serve accepts connections on an existing listener
func (s *Server) Serve(l net.Listener) error {
	if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "http server %s failed", s.name)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for active requests within ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrapf(err, "http server %s shutdown failed", s.name)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
