package database

import (
	"context"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// CompetitorRepositoryInterface defines competitor store operations used by
// the pipeline.
type CompetitorRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Competitor, error)
	GetByName(ctx context.Context, name string) (*domain.Competitor, error)
	List(ctx context.Context) ([]*domain.Competitor, error)
	TouchLastCrawled(ctx context.Context, id string) error
}

// ProductRepositoryInterface defines product store operations used by the
// pipeline.
type ProductRepositoryInterface interface {
	Insert(ctx context.Context, product *domain.ExtractedProduct) (bool, error)
	CanonicalKeys(ctx context.Context, competitorName string) (map[string]struct{}, error)
	ListByCompetitor(ctx context.Context, competitorName string, limit, offset int) ([]*domain.Product, error)
	CountByCompetitor(ctx context.Context, competitorName string) (int, error)
}

// JobRepositoryInterface defines crawl job store operations.
type JobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.CrawlJob) error
	GetByID(ctx context.Context, id string) (*domain.CrawlJob, error)
	List(ctx context.Context, status string, limit, offset int) ([]*domain.CrawlJob, error)
	Count(ctx context.Context, status string) (int, error)
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, found, inserted int) error
	Fail(ctx context.Context, id, message string) error
}

// CrawlLogRepositoryInterface defines crawl log store operations.
type CrawlLogRepositoryInterface interface {
	InsertBatch(ctx context.Context, entries []domain.CrawlLogEntry) error
	ListByJob(ctx context.Context, jobID string, limit, offset int) ([]*domain.CrawlLogEntry, error)
	CountByJob(ctx context.Context, jobID, logType string) (int, error)
}
