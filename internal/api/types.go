package api

import (
	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// TriggerCrawlRequest is the body for POST /api/v1/crawl. Competitor accepts
// an id or a name; a zero limit uses the configured default.
type TriggerCrawlRequest struct {
	Competitor string `json:"competitor"`
	Limit      int    `json:"limit"`
}

// TriggerCrawlResponse acknowledges an accepted crawl job.
type TriggerCrawlResponse struct {
	Success        bool   `json:"success"`
	JobID          string `json:"job_id"`
	CompetitorName string `json:"competitor_name"`
}

// JobsListResponse is the paged body for GET /api/v1/jobs.
type JobsListResponse struct {
	Jobs   []*domain.CrawlJob `json:"jobs"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// JobLogsResponse is the paged body for GET /api/v1/jobs/:id/logs.
type JobLogsResponse struct {
	JobID  string                  `json:"job_id"`
	Logs   []*domain.CrawlLogEntry `json:"logs"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}
