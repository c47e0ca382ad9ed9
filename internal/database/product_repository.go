package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// ProductRepository handles database operations for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Insert writes one extracted product. Re-insertion of an already-known
// canonical URL for the same competitor is a no-op, not an error: the unique
// index on (competitor_name, canonical_url) plus ON CONFLICT DO NOTHING is
// the only guard against concurrent same-competitor jobs. Returns whether a
// row was actually inserted.
func (r *ProductRepository) Insert(ctx context.Context, product *domain.ExtractedProduct) (bool, error) {
	query := `
		INSERT INTO products (id, competitor_name, name, price, raw_price, image_url, source_url, canonical_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (competitor_name, canonical_url) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		uuid.New().String(),
		product.CompetitorName,
		product.Name,
		product.NormalizedPrice,
		product.RawPrice,
		product.ImageURL,
		product.SourceURL,
		product.CanonicalURL,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// CanonicalKeys returns the canonical URLs already persisted for a
// competitor, as a set.
func (r *ProductRepository) CanonicalKeys(ctx context.Context, competitorName string) (map[string]struct{}, error) {
	var keys []string
	query := `SELECT canonical_url FROM products WHERE competitor_name = $1`

	if err := r.db.SelectContext(ctx, &keys, query, competitorName); err != nil {
		return nil, fmt.Errorf("failed to load canonical keys: %w", err)
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	return set, nil
}

// ListByCompetitor retrieves persisted products for a competitor, newest
// first.
func (r *ProductRepository) ListByCompetitor(ctx context.Context, competitorName string, limit, offset int) ([]*domain.Product, error) {
	var products []*domain.Product
	query := `
		SELECT id, competitor_name, name, price, raw_price, image_url, source_url, canonical_url, created_at
		FROM products
		WHERE competitor_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	if err := r.db.SelectContext(ctx, &products, query, competitorName, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if products == nil {
		products = []*domain.Product{}
	}

	return products, nil
}

// CountByCompetitor returns the number of persisted products for a
// competitor.
func (r *ProductRepository) CountByCompetitor(ctx context.Context, competitorName string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE competitor_name = $1`

	if err := r.db.GetContext(ctx, &count, query, competitorName); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}
