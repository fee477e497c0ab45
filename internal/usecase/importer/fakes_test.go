package importer

import (
	"context"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"
)

type fakeSource struct {
	rows  []Row
	err   error
	calls int
}

func (f *fakeSource) Read(_ context.Context, _ string) ([]Row, error) {
	f.calls++
	return f.rows, f.err
}

type fakeProducts struct {
	items []*product.Product
	err   error
	calls int
}

func (f *fakeProducts) All(_ context.Context) ([]*product.Product, error) {
	f.calls++
	return f.items, f.err
}

type fakeCategories struct {
	items     []*category.Category
	allErr    error
	findErr   error
	allCalls  int
	findCalls int
}

func (f *fakeCategories) All(_ context.Context) ([]*category.Category, error) {
	f.allCalls++
	return f.items, f.allErr
}

func (f *fakeCategories) FindByCode(_ context.Context, code string) (*category.Category, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, c := range f.items {
		if product.NormalizeCode(c.Code) == product.NormalizeCode(code) {
			return c, nil
		}
	}
	return nil, category.ErrNotFound
}

type fakeUnitOfWork struct {
	categories []*category.Category
	products   []*product.Product
	saveErr    error
	saves      int
}

func (f *fakeUnitOfWork) AddCategories(categories ...*category.Category) {
	f.categories = append(f.categories, categories...)
}

func (f *fakeUnitOfWork) AddProducts(products ...*product.Product) {
	f.products = append(f.products, products...)
}

func (f *fakeUnitOfWork) Save(_ context.Context) (int, error) {
	f.saves++
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	return len(f.categories) + len(f.products), nil
}
