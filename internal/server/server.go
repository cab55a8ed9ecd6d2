// Package server maps the seven variable routes onto the store and config,
// speaking the legacy plain-text sentinel protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/constants"
	"github.com/loykin/varstore/internal/metrics"
)

// Settings is the slice of config the server needs.
type Settings interface {
	Port() int
	AnonymousAccess() bool
	CheckAuthToken(candidate string) bool
	Save() bool
}

// Store is the variable store served by the routes.
type Store interface {
	Exists(name string) bool
	Data(name string) (string, error)
	Type(name string) (string, error)
	SendValue(name string) (string, error)
	Names() []string
	Set(name, data, typ string) error
	Remove(name string) bool
	Len() int
	Save()
}

// Options tunes a Server. The zero value is usable.
type Options struct {
	// Metrics enables /metrics and request accounting when non-nil.
	Metrics         *metrics.Metrics
	ShutdownTimeout time.Duration
}

type Server struct {
	settings Settings
	store    Store
	metrics  *metrics.Metrics
	engine   *gin.Engine
	logger   *common.Logger

	shutdownTimeout time.Duration
}

// New wires the routes. Both dependencies are owned by the caller.
func New(settings Settings, store Store, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		settings:        settings,
		store:           store,
		metrics:         opts.Metrics,
		engine:          gin.New(),
		logger:          common.GetLogger().WithComponent("server"),
		shutdownTimeout: opts.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = constants.DefaultShutdownTimeout
	}

	s.engine.Use(gin.Recovery(), requestID(), s.requestLogger())
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
		s.metrics.SetVariables(store.Len())
	}
	s.registerRoutes()
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.settings.Port())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.Flush()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.logger.Info("starting server", "port", s.settings.Port())
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully and flushes state. State is flushed on every exit path.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Flush()

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  constants.DefaultReadTimeout,
		WriteTimeout: constants.DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Flush persists the variable store and the config.
func (s *Server) Flush() {
	s.store.Save()
	s.settings.Save()
	if s.metrics != nil {
		s.metrics.ObserveSave("variables")
		s.metrics.ObserveSave("config")
	}
}
