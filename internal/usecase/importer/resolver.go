package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"

	"github.com/google/uuid"
)

// resolver maps category codes to a single Category per run.
type resolver struct {
	categories category.Repository
	cache      map[string]*category.Category
	pending    []*category.Category
	now        time.Time
}

func newResolver(categories category.Repository, now time.Time) *resolver {
	return &resolver{
		categories: categories,
		cache:      make(map[string]*category.Category),
		now:        now,
	}
}

// resolve returns the cached, stored or newly built category for the row.
// Only newly built categories are queued in pending.
func (r *resolver) resolve(ctx context.Context, row Row) (*category.Category, error) {
	key := product.NormalizeCode(row.CategoryCode)
	if c, ok := r.cache[key]; ok {
		return c, nil
	}

	c, err := r.categories.FindByCode(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, category.ErrNotFound):
		c = &category.Category{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(row.CategoryName),
			Code:      strings.TrimSpace(row.CategoryCode),
			CreatedAt: r.now,
		}
		r.pending = append(r.pending, c)
	default:
		return nil, fmt.Errorf("find category %q: %w", row.CategoryCode, err)
	}

	r.cache[key] = c
	return c, nil
}
