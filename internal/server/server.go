// Package server provides the HTTP API and demo page for kreuzsuche.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kreuzlingo/kreuzsuche/internal/config"
	"github.com/kreuzlingo/kreuzsuche/internal/search"
	"github.com/kreuzlingo/kreuzsuche/internal/storage"
)

// Server is the HTTP server for the kreuzsuche API.
type Server struct {
	engine  *search.Engine
	storage storage.Store
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. The engine and its
// index are fully built before the server starts; requests never mutate them.
func NewServer(
	engine *search.Engine,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		storage: store,
		config:  cfg,
		logger:  logger,
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleHome)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
