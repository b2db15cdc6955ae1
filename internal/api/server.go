package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/config"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

const (
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server serves a classified prayer book over HTTP.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(handler *Handler, cfg config.ServerConfig, debug bool, tp *telemetry.Provider, log logger.Logger) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic recovered",
			logger.String("path", c.Request.URL.Path),
			logger.String("panic", fmt.Sprint(recovered)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(LoggerMiddleware(log))

	SetupRoutes(router, handler, RouteOptions{
		Telemetry:    tp,
		ExplainRPS:   cfg.ExplainRPS,
		ExplainBurst: cfg.ExplainBurst,
		Logger:       log,
	})

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		logger: log,
	}
}

// Router returns the underlying Gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		logger.String("address", s.server.Addr),
		logger.Duration("read_timeout", s.server.ReadTimeout),
		logger.Duration("write_timeout", s.server.WriteTimeout),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
	}

	//nolint:contextcheck // ctx is already cancelled here
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
