package domain

import (
	"time"
)

// Job statuses. Transitions are one-directional:
// pending -> processing -> completed or failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// CrawlJob represents one asynchronous crawl run for one competitor.
type CrawlJob struct {
	ID               string     `db:"id"                json:"id"`
	CompetitorID     string     `db:"competitor_id"     json:"competitor_id"`
	CompetitorName   string     `db:"competitor_name"   json:"competitor_name"`
	Status           string     `db:"status"            json:"status"`
	ProductsFound    int        `db:"products_found"    json:"products_found"`
	ProductsInserted int        `db:"products_inserted" json:"products_inserted"`
	ErrorMessage     *string    `db:"error_message"     json:"error_message,omitempty"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
	CompletedAt      *time.Time `db:"completed_at"      json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has reached a final status.
func (j *CrawlJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
