// Package api serves package queries and cached icons over HTTP.
//
// Routes:
//
//	GET /api/packages?sourceName=&model=&version=&isBeta=&keyword=
//	GET /api/search?keyword=&model=&version=&isBeta=
//	GET /api/sources
//	GET /api/models
//	GET /api/versions
//	GET /api/stats
//	GET /cache/{file}
//
// Package queries always answer with an envelope. Input that fails
// validation is answered with 400 and a failure envelope; everything else,
// including unknown names and upstream failures, is a 200 whose envelope
// carries success=false.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/synopackage/pkg/aggregator"
	"github.com/matzehuels/synopackage/pkg/registry"
)

// Service answers package queries. *aggregator.Service implements it.
type Service interface {
	Resolve(ctx context.Context, r aggregator.Request) (*aggregator.Envelope, error)
	SearchAll(ctx context.Context, r aggregator.Request) ([]*aggregator.Envelope, error)
}

// IconStore reads stored icons by file name. *icons.Cache implements it.
type IconStore interface {
	Get(ctx context.Context, fileName string) ([]byte, bool, error)
}

// Registry lists the known sources, models and versions.
type Registry interface {
	registry.SourceRegistry
	registry.ModelRegistry
	registry.VersionRegistry
}

// Options configures the router.
type Options struct {
	Service  Service
	Icons    IconStore
	Registry Registry

	// Counters returns hook counters for /api/stats. Optional.
	Counters func() map[string]int64

	// Breakers returns circuit breaker states per host. Optional.
	Breakers func() map[string]string

	Logger *log.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	h := &handlers{opts: opts, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(opts.Logger))
	r.Use(Recover(opts.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/packages", h.packages)
		r.Get("/search", h.search)
		r.Get("/sources", h.sources)
		r.Get("/models", h.models)
		r.Get("/versions", h.versions)
		r.Get("/stats", h.stats)
	})
	r.Get("/cache/{file}", h.icon)

	return r
}

// Server wraps an http.Server around the router.
type Server struct {
	srv    *http.Server
	logger *log.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: opts.Logger,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
