package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	checks := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.log(c).Warn("Health check failed", logger.String("check", name), logger.Err(err))
			checks[name] = "down"
			status = "degraded"
			continue
		}
		checks[name] = "up"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	body := gin.H{"status": status, "checks": checks}
	if len(h.Stats) > 0 {
		details := make(map[string]map[string]interface{}, len(h.Stats))
		for name, stats := range h.Stats {
			details[name] = stats()
		}
		body["details"] = details
	}
	c.JSON(code, body)
}
