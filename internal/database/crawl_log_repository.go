package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// CrawlLogRepository handles database operations for the append-only crawl
// log trail. Entries are immutable once written.
type CrawlLogRepository struct {
	db *sqlx.DB
}

// NewCrawlLogRepository creates a new crawl log repository.
func NewCrawlLogRepository(db *sqlx.DB) *CrawlLogRepository {
	return &CrawlLogRepository{db: db}
}

// InsertBatch writes all entries in one multi-row insert.
func (r *CrawlLogRepository) InsertBatch(ctx context.Context, entries []domain.CrawlLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]domain.CrawlLogEntry, len(entries))
	copy(rows, entries)
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}

	query := `
		INSERT INTO crawl_logs (id, job_id, competitor_id, log_type, message,
		                        product_name, product_url, product_price,
		                        filter_reason, details, created_at)
		VALUES (:id, :job_id, :competitor_id, :log_type, :message,
		        :product_name, :product_url, :product_price,
		        :filter_reason, :details, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert crawl log batch: %w", err)
	}

	return nil
}

// ListByJob retrieves a job's log trail in insertion order.
func (r *CrawlLogRepository) ListByJob(ctx context.Context, jobID string, limit, offset int) ([]*domain.CrawlLogEntry, error) {
	var entries []*domain.CrawlLogEntry
	query := `
		SELECT id, job_id, competitor_id, log_type, message, product_name,
		       product_url, product_price, filter_reason, details, created_at
		FROM crawl_logs
		WHERE job_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	if err := r.db.SelectContext(ctx, &entries, query, jobID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list crawl logs: %w", err)
	}

	if entries == nil {
		entries = []*domain.CrawlLogEntry{}
	}

	return entries, nil
}

// CountByJob returns the number of log entries for a job, optionally
// filtered by log type.
func (r *CrawlLogRepository) CountByJob(ctx context.Context, jobID, logType string) (int, error) {
	var count int
	var err error

	if logType != "" {
		err = r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM crawl_logs WHERE job_id = $1 AND log_type = $2`, jobID, logType)
	} else {
		err = r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM crawl_logs WHERE job_id = $1`, jobID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count crawl logs: %w", err)
	}

	return count, nil
}
