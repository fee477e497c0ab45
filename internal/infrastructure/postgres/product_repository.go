package postgres

import (
	"context"
	"fmt"
	"strings"

	domain "catalog/backend/internal/domain/product"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id::text, name, code, category_code, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProductRepository reads products from PostgreSQL.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository constructs a repository.
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

var _ domain.Repository = (*ProductRepository)(nil)

// All returns every stored product.
func (r *ProductRepository) All(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return collectProducts(rows)
}

// List returns one page of products matching the filter and the total match count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, int, error) {
	var (
		conditions []string
		args       []any
	)
	if code := strings.TrimSpace(filter.CategoryCode); code != "" {
		args = append(args, likeEscaper.Replace(code))
		conditions = append(conditions, fmt.Sprintf("category_code ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if code := strings.TrimSpace(filter.ProductCode); code != "" {
		args = append(args, likeEscaper.Replace(code))
		conditions = append(conditions, fmt.Sprintf("code ILIKE '%%' || $%d || '%%'", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY ` + orderBy(filter.SortBy, filter.Descending) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func orderBy(sortBy string, descending bool) string {
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case domain.SortByName:
		return "name " + direction + ", id"
	case domain.SortByCode:
		return "code " + direction + ", id"
	case domain.SortByCategoryCode:
		return "category_code " + direction + ", id"
	default:
		// Ids are random UUIDs, so insertion time keeps unsorted pages in import order.
		return "created_at " + direction + ", id " + direction
	}
}

func collectProducts(rows pgx.Rows) ([]*domain.Product, error) {
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.CategoryCode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
