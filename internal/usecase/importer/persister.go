package importer

import (
	"context"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"
)

// UnitOfWork buffers additions and writes them in a single save.
type UnitOfWork interface {
	AddCategories(categories ...*category.Category)
	AddProducts(products ...*product.Product)
	// Save flushes everything added so far and returns the number of written records.
	Save(ctx context.Context) (int, error)
}

// persist adds categories before products and saves once. Nothing is saved
// when both lists are empty.
func persist(ctx context.Context, uow UnitOfWork, categories []*category.Category, products []*product.Product) (int, error) {
	if len(categories) == 0 && len(products) == 0 {
		return 0, nil
	}
	uow.AddCategories(categories...)
	uow.AddProducts(products...)
	return uow.Save(ctx)
}
