package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-pipeline/internal/common/config"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/pipeline/router"
)

const requestIDHeader = "X-Request-ID"

// Processor routes one uploaded file. *router.Router satisfies it when
// configured for in-memory output.
type Processor interface {
	Route(ctx context.Context, req router.Request) (*router.Result, error)
}

// Check is a readiness probe for a backing dependency.
type Check func(ctx context.Context) error

type Option func(*Server)

// WithReadinessCheck adds a named probe to GET /ready.
func WithReadinessCheck(name string, check Check) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

type Server struct {
	cfg       config.ServerConfig
	processor Processor
	checks    map[string]Check
	logger    logger.Logger
	engine    *gin.Engine
}

func New(cfg config.ServerConfig, processor Processor, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		processor: processor,
		checks:    make(map[string]Check),
		logger:    log.WithFields(map[string]interface{}{"component": "http"}),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.MaxUploadMB > 0 {
		r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20
	}
	s.register(r)
	s.engine = r
	return s
}

func (s *Server) register(r *gin.Engine) {
	r.GET("/", s.index)
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/process", s.process)
}

// Handler exposes the gin engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Millisecond,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestId", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		s.logger.Info("request handled", map[string]interface{}{
			"requestId":   requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{intentHeader, "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
