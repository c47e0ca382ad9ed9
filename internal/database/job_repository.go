package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// JobRepository handles database operations for crawl jobs. Status updates
// carry the expected prior status in the WHERE clause so transitions stay
// one-directional even under concurrent writers.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	id, competitor_id, competitor_name, status, products_found,
	products_inserted, error_message, created_at, completed_at
`

// Create inserts a new job in pending status.
func (r *JobRepository) Create(ctx context.Context, job *domain.CrawlJob) error {
	query := `
		INSERT INTO crawl_jobs (id, competitor_id, competitor_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.ID,
		job.CompetitorID,
		job.CompetitorName,
		domain.JobStatusPending,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	job.Status = domain.JobStatusPending
	return nil
}

// GetByID retrieves a job by its id.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.CrawlJob, error) {
	var job domain.CrawlJob
	query := `SELECT ` + jobColumns + ` FROM crawl_jobs WHERE id = $1`

	err := r.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// List retrieves jobs with optional status filtering, newest first.
func (r *JobRepository) List(ctx context.Context, status string, limit, offset int) ([]*domain.CrawlJob, error) {
	var jobs []*domain.CrawlJob
	var query string
	var args []any

	if status != "" {
		query = `SELECT ` + jobColumns + ` FROM crawl_jobs WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = []any{status, limit, offset}
	} else {
		query = `SELECT ` + jobColumns + ` FROM crawl_jobs
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = []any{limit, offset}
	}

	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	if jobs == nil {
		jobs = []*domain.CrawlJob{}
	}

	return jobs, nil
}

// Count returns the total number of jobs, optionally filtered by status.
func (r *JobRepository) Count(ctx context.Context, status string) (int, error) {
	var count int
	var err error

	if status != "" {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM crawl_jobs WHERE status = $1`, status)
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM crawl_jobs`)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	return count, nil
}

// MarkProcessing moves a pending job to processing.
func (r *JobRepository) MarkProcessing(ctx context.Context, id string) error {
	query := `UPDATE crawl_jobs SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, domain.JobStatusProcessing, id, domain.JobStatusPending)
	if execErr := execRequireRows(result, err, ErrInvalidTransition); execErr != nil {
		return fmt.Errorf("failed to mark job %s processing: %w", id, execErr)
	}

	return nil
}

// Complete moves a processing job to completed with its final counts.
func (r *JobRepository) Complete(ctx context.Context, id string, found, inserted int) error {
	query := `
		UPDATE crawl_jobs
		SET status = $1, products_found = $2, products_inserted = $3, completed_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(
		ctx, query,
		domain.JobStatusCompleted, found, inserted, id, domain.JobStatusProcessing,
	)
	if execErr := execRequireRows(result, err, ErrInvalidTransition); execErr != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, execErr)
	}

	return nil
}

// Fail moves a processing job to failed with an error message.
func (r *JobRepository) Fail(ctx context.Context, id, message string) error {
	query := `
		UPDATE crawl_jobs
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(
		ctx, query,
		domain.JobStatusFailed, message, id, domain.JobStatusProcessing,
	)
	if execErr := execRequireRows(result, err, ErrInvalidTransition); execErr != nil {
		return fmt.Errorf("failed to fail job %s: %w", id, execErr)
	}

	return nil
}
