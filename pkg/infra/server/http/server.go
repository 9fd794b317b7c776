// Package http serves the status endpoints of a running benchmark:
// Prometheus metrics, data source health and build version.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/kart-io/mongosource/pkg/errors"
	options "github.com/kart-io/mongosource/pkg/options/http"
)

// Server is the status HTTP server.
type Server struct {
	opts     *options.Options
	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
	gatherer prometheus.Gatherer
	health   HealthSource
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer sets the registry served on the metrics path.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHealthSource sets the data sources reported on the health path.
func WithHealthSource(h HealthSource) ServerOption {
	return func(s *Server) {
		s.health = h
	}
}

// NewServer creates a new HTTP server with the given options.
func NewServer(serverOpts *options.Options, opts ...ServerOption) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(recovery())

	s := &Server{
		opts:     serverOpts,
		engine:   engine,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	if s.opts.MetricsPath != "" {
		s.engine.GET(s.opts.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	if s.opts.HealthPath != "" {
		s.engine.GET(s.opts.HealthPath, healthHandler(s.health))
	}
	if s.opts.VersionPath != "" {
		s.engine.GET(s.opts.VersionPath, versionHandler)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    apierrors.ErrRouteNotFound.Code,
			"message": apierrors.ErrRouteNotFound.MessageEN,
		})
	})
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once Start succeeded, otherwise the
// configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("status server stopped", "addr", ln.Addr().String(), "error", err)
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		_ = s.server.Close()
		return ctx.Err()
	default:
		logger.Infow("status server listening", "addr", ln.Addr().String())
		return nil
	}
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	return s.server.Shutdown(ctx)
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, r any) {
		logger.Errorw("panic recovered",
			"path", c.Request.URL.Path,
			"panic", r,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    apierrors.ErrInternal.Code,
			"message": apierrors.ErrInternal.MessageEN,
		})
	})
}
