package routes

import (
	"time"

	"github.com/bluecycle/bluecycle/internal/api/handlers"
	"github.com/bluecycle/bluecycle/internal/api/middleware"
	"github.com/bluecycle/bluecycle/internal/config"
	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/bluecycle/bluecycle/pkg/monitoring"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures middleware and all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application, corsCfg config.CORSConfig, log *logger.Logger) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		monitoring.PrometheusMiddleware(),
		cors.New(corsConfig(corsCfg)),
	)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Driver location for a pickup
		location := api.Group("/driver-location")
		{
			location.GET("/:pickupId", h.GetDriverLocation)
			location.POST("/:pickupId", h.ReportDriverLocation)
		}

		api.POST("/driver-ratings", h.SubmitRating)
		api.GET("/drivers/:id", h.GetDriver)
	}
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
