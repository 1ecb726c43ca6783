// Package server exposes the edit pipeline over a small HTTP surface.
// All request semantics live in the edits package; this layer only
// decodes JSON, invokes the processor and maps errors to statuses.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pixeldrift/imagehandler/internal/config"
	"github.com/pixeldrift/imagehandler/internal/edits"
)

// Server wraps the HTTP listener and its routes.
type Server struct {
	log       zerolog.Logger
	processor *edits.Processor
	http      *http.Server

	maxRequestBytes int64
}

// New builds a server around the given processor.
func New(cfg *config.Config, log zerolog.Logger, processor *edits.Processor) *Server {
	s := &Server{
		log:             log,
		processor:       processor,
		maxRequestBytes: cfg.MaxRequestBytes,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(log))
	r.Get("/healthz", s.handleHealth)
	r.Post("/process", s.handleProcess)

	s.http = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	return s
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start runs the listener in the calling goroutine.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
