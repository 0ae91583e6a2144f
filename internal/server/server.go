// Package server exposes directory rankings over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/containerd/log"
	"github.com/gin-gonic/gin"

	"github.com/idelchi/topdirs/internal/topdirs"
)

// DefaultCacheTTL is how long a ranking is served from cache.
const DefaultCacheTTL = 30 * time.Second

const shutdownTimeout = 5 * time.Second

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	Addr string
	// CacheTTL is how long a ranking is reused (0 disables caching).
	CacheTTL time.Duration
	// Options are the engine options used for every analysis.
	Options topdirs.Options
}

// Server serves rankings produced by a shared topdirs.Runner.
type Server struct {
	cfg    Config
	runner *topdirs.Runner
	cache  *resultCache
	engine *gin.Engine
}

// New creates a Server with its routes registered.
func New(cfg Config) *Server {
	engine := gin.New()
	engine.Use(gin.LoggerWithWriter(log.L.Writer()), gin.Recovery())

	s := &Server{
		cfg:    cfg,
		runner: topdirs.NewRunner(cfg.Options, nil),
		cache:  newResultCache(cfg.CacheTTL),
		engine: engine,
	}

	s.registerRoutes()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.G(ctx).WithField("addr", s.cfg.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serving on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}
