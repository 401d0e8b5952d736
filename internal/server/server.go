// package server exposes the match engine over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/songmatch/internal/cache"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the GET routes it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Engine is the subset of [tasks.MatchEngine] the HTTP API needs.
type Engine interface {
	tasks.Matcher
	Batch(ctx context.Context, prog chan<- tasks.ProgressUpdate, inputs []string, opts tasks.BatchOpts) (*tasks.BatchResult, error)
	CacheStats() cache.Stats
	Forget(input string, platform models.Platform) (models.CacheKey, bool, error)
}

// Server serves the match API.
type Server struct {
	engine     Engine
	logger     *log.Logger
	router     chi.Router
	maxBatch   int
	reqTimeout time.Duration
}

// Option customizes a [Server].
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBatch caps the number of inputs accepted by POST /api/batch.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithRequestTimeout bounds each resolution started by a request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.reqTimeout = d
		}
	}
}

// New builds a [Server] around engine and registers its routes.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		logger:     shared.NewLogger(io.Discard),
		maxBatch:   100,
		reqTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements [http.Handler] for the entire API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.reqTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// StatusFor maps a result to the HTTP status of its response.
func StatusFor(r models.MatchResult) int {
	if r.Success {
		return http.StatusOK
	}
	switch r.Kind() {
	case models.KindInvalidInput:
		return http.StatusBadRequest
	case models.KindNoMatchFound:
		return http.StatusNotFound
	case models.KindAuthFailure, models.KindSourceFetchFailed, models.KindTargetSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
