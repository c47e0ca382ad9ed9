package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/pipeline"
)

// CrawlTriggerInterface starts a crawl job and returns before it runs.
type CrawlTriggerInterface interface {
	Trigger(ctx context.Context, competitorIDOrName string, limit int) (*pipeline.TriggerResult, error)
}

// CrawlHandler handles crawl trigger requests.
type CrawlHandler struct {
	service CrawlTriggerInterface
}

// NewCrawlHandler creates a new crawl handler.
func NewCrawlHandler(service CrawlTriggerInterface) *CrawlHandler {
	return &CrawlHandler{service: service}
}

// TriggerCrawl handles POST /api/v1/crawl. The job is created in pending
// status and runs in the background; the response carries only the job id.
func (h *CrawlHandler) TriggerCrawl(c *gin.Context) {
	var req TriggerCrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Competitor == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "competitor is required",
		})
		return
	}

	result, err := h.service.Trigger(c.Request.Context(), req.Competitor, req.Limit)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Competitor not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to trigger crawl: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, TriggerCrawlResponse{
		Success:        true,
		JobID:          result.JobID,
		CompetitorName: result.CompetitorName,
	})
}
