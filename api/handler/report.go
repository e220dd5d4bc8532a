package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/docket/cache"
	"github.com/use-agent/docket/models"
	"github.com/use-agent/docket/qa"
)

// GetReport returns a handler for GET /api/v1/qa/report.
//
// Query parameters:
//
//	entity — narrow the report to one entity ID
//	limit  — cap the number of entities returned
func GetReport(cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := cc.Report()
		if report == nil {
			perr := models.NewPipelineError(models.ErrCodeNotFound,
				"no completed run yet", nil)
			c.JSON(http.StatusNotFound, models.ReportResponse{
				Success: false,
				Error:   perr.ToDetail(),
			})
			return
		}

		entity := c.Query("entity")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		if entity != "" || limit > 0 {
			report = qa.Filter(report, entity, limit)
		}

		c.JSON(http.StatusOK, models.ReportResponse{Success: true, Report: report})
	}
}
