package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// CompetitorRepository handles database operations for competitors. The
// pipeline reads competitors and touches last_crawled_at; everything else is
// owned by the admin surface.
type CompetitorRepository struct {
	db *sqlx.DB
}

// NewCompetitorRepository creates a new competitor repository.
func NewCompetitorRepository(db *sqlx.DB) *CompetitorRepository {
	return &CompetitorRepository{db: db}
}

const competitorColumns = `
	id, name, base_scrape_url, url_patterns, excluded_category_keywords,
	last_crawled_at, created_at
`

// GetByID retrieves a competitor by its id.
func (r *CompetitorRepository) GetByID(ctx context.Context, id string) (*domain.Competitor, error) {
	var competitor domain.Competitor
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`

	err := r.db.GetContext(ctx, &competitor, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("competitor %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}

	return &competitor, nil
}

// GetByName retrieves a competitor by case-insensitive name.
func (r *CompetitorRepository) GetByName(ctx context.Context, name string) (*domain.Competitor, error) {
	var competitor domain.Competitor
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE LOWER(name) = LOWER($1)`

	err := r.db.GetContext(ctx, &competitor, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("competitor %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get competitor by name: %w", err)
	}

	return &competitor, nil
}

// List retrieves all competitors ordered by name.
func (r *CompetitorRepository) List(ctx context.Context) ([]*domain.Competitor, error) {
	var competitors []*domain.Competitor
	query := `SELECT ` + competitorColumns + ` FROM competitors ORDER BY name`

	if err := r.db.SelectContext(ctx, &competitors, query); err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	if competitors == nil {
		competitors = []*domain.Competitor{}
	}

	return competitors, nil
}

// TouchLastCrawled stamps last_crawled_at. Called on every attempted run,
// success or failure.
func (r *CompetitorRepository) TouchLastCrawled(ctx context.Context, id string) error {
	query := `UPDATE competitors SET last_crawled_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if execErr := execRequireRows(result, err, ErrNotFound); execErr != nil {
		return fmt.Errorf("failed to touch last_crawled_at for %s: %w", id, execErr)
	}

	return nil
}
