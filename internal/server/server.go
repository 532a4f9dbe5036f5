// Package server provides the HTTP API for semantik.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/indexer"
	"github.com/hyperjump/semantik/internal/search"
	"github.com/hyperjump/semantik/internal/storage"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// VectorStats reports the number of stored vectors.
type VectorStats interface {
	Size() int
}

// Server is the HTTP server for the semantik API.
type Server struct {
	session *search.Session
	indexer *indexer.Indexer
	storage storage.Storage
	vectors VectorStats
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithIndexer enables the document indexing and deletion endpoints.
func WithIndexer(idx *indexer.Indexer) Option {
	return func(s *Server) { s.indexer = idx }
}

// NewServer creates a server answering queries through session.
func NewServer(session *search.Session, store storage.Storage, vectors VectorStats, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		session: session,
		storage: store,
		vectors: vectors,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Post("/api/v1/documents", s.handleIndexDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/documents/{id}/file", s.handleDocumentFile)
	r.Get("/api/v1/documents/{id}/pages/{page}/text", s.handlePageText)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("session_id", s.session.ID()))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
