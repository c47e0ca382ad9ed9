package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/shopcrawl/internal/database"
)

const (
	defaultLimit  = 50
	defaultOffset = 0
	maxLogLimit   = 500
)

// JobsHandler handles job-related HTTP requests.
type JobsHandler struct {
	jobs database.JobRepositoryInterface
	logs database.CrawlLogRepositoryInterface
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(
	jobs database.JobRepositoryInterface,
	logs database.CrawlLogRepositoryInterface,
) *JobsHandler {
	return &JobsHandler{jobs: jobs, logs: logs}
}

// ListJobs handles GET /api/v1/jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	status := c.Query("status")
	limit, offset := pagination(c, defaultLimit)

	jobs, err := h.jobs.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve jobs",
		})
		return
	}

	total, err := h.jobs.Count(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get total count",
		})
		return
	}

	c.JSON(http.StatusOK, JobsListResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobsHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if id == "" || id == "undefined" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetJobLogs handles GET /api/v1/jobs/:id/logs
func (h *JobsHandler) GetJobLogs(c *gin.Context) {
	id := c.Param("id")
	if id == "" || id == "undefined" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	// The job must exist; an empty trail on a real job is a valid response.
	if _, err := h.jobs.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	limit, offset := pagination(c, maxLogLimit)

	entries, err := h.logs.ListByJob(c.Request.Context(), id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve crawl logs",
		})
		return
	}

	total, err := h.logs.CountByJob(c.Request.Context(), id, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get total count",
		})
		return
	}

	c.JSON(http.StatusOK, JobLogsResponse{
		JobID:  id,
		Logs:   entries,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// pagination reads limit and offset query parameters, falling back to
// defaults on missing or invalid values.
func pagination(c *gin.Context, fallbackLimit int) (limit, offset int) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(fallbackLimit))
	offsetStr := c.DefaultQuery("offset", strconv.Itoa(defaultOffset))

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = fallbackLimit
	}

	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = defaultOffset
	}

	return limit, offset
}
