package domain

import (
	"time"
)

// Log entry types. Every candidate URL that reaches a terminal disposition
// within a job produces exactly one entry; info entries record milestones.
const (
	LogTypeInfo     = "info"
	LogTypeAdded    = "added"
	LogTypeFiltered = "filtered"
	LogTypeSkipped  = "skipped"
	LogTypeError    = "error"
)

// CrawlLogEntry is one immutable record in a job's append-only trail.
type CrawlLogEntry struct {
	ID           string    `db:"id"            json:"id"`
	JobID        string    `db:"job_id"        json:"job_id"`
	CompetitorID string    `db:"competitor_id" json:"competitor_id"`
	LogType      string    `db:"log_type"      json:"log_type"`
	Message      string    `db:"message"       json:"message"`
	ProductName  *string   `db:"product_name"  json:"product_name,omitempty"`
	ProductURL   *string   `db:"product_url"   json:"product_url,omitempty"`
	ProductPrice *float64  `db:"product_price" json:"product_price,omitempty"`
	FilterReason *string   `db:"filter_reason" json:"filter_reason,omitempty"`
	Details      JSONBMap  `db:"details"       json:"details,omitempty"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
