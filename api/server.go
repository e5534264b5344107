package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var logger = log.NewWithModule("api_server")

// maxBodySize bounds a request body, batches included.
const maxBodySize = 8 << 20

type config struct {
	logger   logrus.FieldLogger
	gatherer prometheus.Gatherer
	origins  []string
}

type Option func(*config)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = gatherer
	}
}

// WithCORSOrigins sets the origins allowed to call the server from a
// browser. Without it every origin is allowed.
func WithCORSOrigins(origins []string) Option {
	return func(c *config) {
		c.origins = origins
	}
}

// Server is a running JSON-RPC listener.
type Server struct {
	listener net.Listener
	srv      *http.Server
	logger   logrus.FieldLogger

	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// Serve binds bindAddr and starts serving handler in the background. Port 0
// picks a free port; read it back with Port. Canceling ctx shuts the server
// down.
func Serve(ctx context.Context, handler Handler, bindAddr string, opts ...Option) (*Server, error) {
	c := &config{
		logger:  logger,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(c)
	}

	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", bindAddr, err)
	}

	s := &Server{
		listener: ln,
		logger:   c.logger,
		done:     make(chan struct{}),
	}
	s.srv = &http.Server{
		Handler: cors.New(cors.Options{
			AllowedOrigins: c.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"*"},
		}).Handler(router(handler, c)),
	}

	go func() {
		err := s.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("error", err).Error("RPC server stopped")
			s.err = err
		}
		close(s.done)
	}()

	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(context.Background()); err != nil {
				s.logger.WithField("error", err).Warn("Shutdown RPC server")
			}
		case <-s.done:
		}
	}()

	s.logger.WithField("addr", ln.Addr().String()).Info("RPC server started")

	return s, nil
}

func router(handler Handler, c *config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	serveRPC := func(ctx *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxBodySize))
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		data, ok := handler.Handle(ctx.Request.Context(), body)
		if !ok {
			ctx.Status(http.StatusNoContent)
			return
		}
		ctx.Data(http.StatusOK, "application/json", data)
	}
	r.POST("/", serveRPC)
	r.POST("/rpc", serveRPC)

	v1 := r.Group("/v1")
	{
		v1.GET("/state", func(ctx *gin.Context) {
			s, err := handler.State()
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, s)
		})
	}

	if c.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Done is closed once the server has stopped, after Stop or a fatal serve
// error.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the serve error after Done is closed, nil after a clean
// shutdown.
func (s *Server) Err() error {
	<-s.done
	return s.err
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		err = s.srv.Shutdown(ctx)
		s.logger.Info("RPC server stopped")
	})
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped reports whether Stop was called.
func (s *Server) Stopped() bool {
	return s.stopped.Load()
}
