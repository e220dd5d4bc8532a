package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/docket/cache"
	"github.com/use-agent/docket/models"
)

// GetRecord returns a handler for GET /api/v1/records/:id.
func GetRecord(cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		rec, ok := cc.Record(id)
		if !ok {
			perr := models.NewPipelineError(models.ErrCodeNotFound,
				"no record for entity "+id+" in the latest run", nil)
			c.JSON(http.StatusNotFound, models.RecordResponse{
				Success: false,
				Error:   perr.ToDetail(),
			})
			return
		}

		c.JSON(http.StatusOK, models.RecordResponse{Success: true, Record: rec})
	}
}

// GetRecordDiff returns a handler for GET /api/v1/records/:id/diff.
func GetRecordDiff(cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		diff, ok := cc.Diff(id)
		if !ok {
			perr := models.NewPipelineError(models.ErrCodeNotFound,
				"no QA diff for entity "+id+" in the latest run", nil)
			c.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Error:   perr.ToDetail(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "diff": diff})
	}
}
