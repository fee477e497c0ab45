package category

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no category matches the requested code.
var ErrNotFound = errors.New("category not found")

// Category groups products. Its code is unique case-insensitively.
type Category struct {
	ID        string
	Name      string
	Code      string
	CreatedAt time.Time
}

// Repository defines read access to stored categories.
type Repository interface {
	All(ctx context.Context) ([]*Category, error)
	// FindByCode matches the code case-insensitively.
	FindByCode(ctx context.Context, code string) (*Category, error)
}
