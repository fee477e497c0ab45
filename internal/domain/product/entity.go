package product

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates a product could not be located.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateCode signals a product or category code uniqueness breach.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrInvalidPagination is returned when page or page size is not positive.
	ErrInvalidPagination = errors.New("page and pageSize must be greater than zero")
	// ErrPageOutOfRange is returned when page or page size exceeds what a listing can address.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Column limits enforced by the catalog schema.
const (
	MaxNameLength = 100
	MaxCodeLength = 50
)

// Product captures the state of an individual catalog product.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	CategoryCode string    `json:"categoryCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NormalizeCode trims and lowercases a code for equality checks.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
