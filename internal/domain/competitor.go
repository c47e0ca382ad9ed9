// Package domain provides domain models used across the application.
package domain

import (
	"time"

	"github.com/lib/pq"
)

// Competitor describes an admin-configured crawl target. The pipeline
// treats it as read-only except for LastCrawledAt.
type Competitor struct {
	ID                       string         `db:"id"                         json:"id"`
	Name                     string         `db:"name"                       json:"name"`
	BaseScrapeURL            string         `db:"base_scrape_url"            json:"base_scrape_url"`
	URLPatterns              pq.StringArray `db:"url_patterns"               json:"url_patterns,omitempty"`
	ExcludedCategoryKeywords pq.StringArray `db:"excluded_category_keywords" json:"excluded_category_keywords,omitempty"`
	LastCrawledAt            *time.Time     `db:"last_crawled_at"            json:"last_crawled_at,omitempty"`
	CreatedAt                time.Time      `db:"created_at"                 json:"created_at"`
}
