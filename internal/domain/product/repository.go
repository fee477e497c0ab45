package product

import "context"

// Sort fields recognised by the listing query. Anything else orders by id.
const (
	SortByName         = "name"
	SortByCode         = "code"
	SortByCategoryCode = "categorycode"
)

// ListFilter narrows and orders a product listing.
type ListFilter struct {
	CategoryCode string
	ProductCode  string
	SortBy       string
	Descending   bool
	Limit        int
	Offset       int
}

// Page is one slice of a product listing.
type Page struct {
	Items       []*Product
	TotalCount  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// Repository defines persistence behaviours for products.
type Repository interface {
	All(ctx context.Context) ([]*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, int, error)
}
