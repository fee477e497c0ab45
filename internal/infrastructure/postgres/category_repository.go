package postgres

import (
	"context"
	"errors"
	"fmt"

	"catalog/backend/internal/domain/category"

	"github.com/jackc/pgx/v5"
)

// CategoryRepository reads categories from PostgreSQL.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository constructs a repository.
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ category.Repository = (*CategoryRepository)(nil)

// All returns every stored category.
func (r *CategoryRepository) All(ctx context.Context) ([]*category.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, name, code, created_at FROM categories ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// FindByCode fetches a category by code, ignoring case and surrounding spaces.
func (r *CategoryRepository) FindByCode(ctx context.Context, code string) (*category.Category, error) {
	const query = `
SELECT id::text, name, code, created_at
FROM categories WHERE LOWER(code) = LOWER(TRIM($1))
LIMIT 1
`
	var c category.Category
	err := r.db.QueryRow(ctx, query, code).Scan(&c.ID, &c.Name, &c.Code, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("find category %q: %w", code, err)
	}
	return &c, nil
}
