// Package server exposes the dashboard pipeline over HTTP with gin.
//
// The server is a thin adapter: it turns query strings and JSON bodies into
// engine.FilterSpec values, runs the pipeline against the immutable store
// and writes the result back as JSON or CSV. Every handler only reads
// shared state, so requests run concurrently without locking.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/spektr-org/clinicdash/config"
	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/observability"
	"github.com/spektr-org/clinicdash/store"
)

const shutdownTimeout = 10 * time.Second

// Server serves one loaded store.
type Server struct {
	store   *store.Store
	cfg     config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    []engine.Option
	router  *gin.Engine
}

// New wires routes and middleware. metrics may be nil.
func New(st *store.Store, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	s := &Server{
		store:   st,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		opts:    append(cfg.EngineOptions(), engine.WithLogger(logger)),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName()))
	router.Use(requestLogger(logger, metrics))
	router.Use(rateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	s.router = router
	s.routes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", srv.Addr, "rows", s.store.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
