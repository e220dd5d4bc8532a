package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/docket/cache"
	"github.com/use-agent/docket/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Degrades status while no run has populated the cache yet: probes should
// see the service up, consumers should know there is nothing to read.
func Health(cc *cache.Cache, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if cc.Report() == nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Records: cc.Len(),
			Version: "0.1.0",
		})
	}
}
