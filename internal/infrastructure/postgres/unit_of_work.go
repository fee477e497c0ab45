package postgres

import (
	"context"
	"fmt"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"
	"catalog/backend/internal/usecase/importer"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork buffers new categories and products and writes them in one transaction.
type UnitOfWork struct {
	db         DBTX
	categories []*category.Category
	products   []*product.Product
}

// NewUnitOfWork constructs an empty unit of work.
func NewUnitOfWork(db DBTX) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ importer.UnitOfWork = (*UnitOfWork)(nil)

// AddCategories queues categories for insertion.
func (u *UnitOfWork) AddCategories(categories ...*category.Category) {
	u.categories = append(u.categories, categories...)
}

// AddProducts queues products for insertion.
func (u *UnitOfWork) AddProducts(products ...*product.Product) {
	u.products = append(u.products, products...)
}

// Save inserts all queued categories, then all queued products, and commits.
// The buffers are cleared whether or not the save succeeds.
func (u *UnitOfWork) Save(ctx context.Context) (int, error) {
	defer u.reset()

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	changes, err := u.write(ctx, tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return changes, nil
}

func (u *UnitOfWork) write(ctx context.Context, tx pgx.Tx) (int, error) {
	const insertCategory = `
INSERT INTO categories (id, name, code, created_at)
VALUES ($1, $2, $3, $4)
`
	const insertProduct = `
INSERT INTO products (id, name, code, category_code, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	changes := 0
	for _, c := range u.categories {
		tag, err := tx.Exec(ctx, insertCategory, c.ID, c.Name, c.Code, c.CreatedAt)
		if err != nil {
			return 0, writeError("category", c.Code, err)
		}
		changes += int(tag.RowsAffected())
	}
	for _, p := range u.products {
		tag, err := tx.Exec(ctx, insertProduct, p.ID, p.Name, p.Code, p.CategoryCode, p.CreatedAt)
		if err != nil {
			return 0, writeError("product", p.Code, err)
		}
		changes += int(tag.RowsAffected())
	}
	return changes, nil
}

func (u *UnitOfWork) reset() {
	u.categories = nil
	u.products = nil
}

func writeError(kind, code string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s %q: %w", kind, code, product.ErrDuplicateCode)
	}
	return fmt.Errorf("insert %s %q: %w", kind, code, err)
}
