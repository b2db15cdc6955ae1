package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

// RouteOptions configures optional routes and limits.
type RouteOptions struct {
	// Telemetry serves /metrics when set.
	Telemetry *telemetry.Provider
	// ExplainRPS limits the explain endpoint when positive.
	ExplainRPS   int
	ExplainBurst int
	Logger       logger.Logger
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler, opts RouteOptions) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/", handler.Index)
	if opts.Telemetry != nil {
		router.GET("/metrics", gin.WrapH(opts.Telemetry.Handler()))
	}

	explain := []gin.HandlerFunc{handler.Explain}
	if opts.ExplainRPS > 0 {
		log := opts.Logger
		if log == nil {
			log = logger.NewNop()
		}
		explain = append([]gin.HandlerFunc{RateLimitMiddleware(opts.ExplainRPS, opts.ExplainBurst, log)}, explain...)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tree", handler.GetTree)                 // GET /api/v1/tree
		v1.GET("/stats", handler.GetStats)               // GET /api/v1/stats
		v1.GET("/categories/*path", handler.GetCategory) // GET /api/v1/categories/Teaching/Humanity
		v1.POST("/explain", explain...)                  // POST /api/v1/explain

		runs := v1.Group("/runs")
		{
			runs.GET("", handler.ListRuns)                // GET /api/v1/runs
			runs.GET("/:from/diff/:to", handler.DiffRuns) // GET /api/v1/runs/:from/diff/:to
		}
	}
}
