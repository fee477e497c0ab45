package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	domain "catalog/backend/internal/domain/product"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidSortOrder is returned for a sort order other than asc or desc.
	ErrInvalidSortOrder = errors.New("sortOrder must be asc or desc")
	// ErrInvalidFilter wraps filter values the listing refuses to run.
	ErrInvalidFilter = errors.New("invalid filter")
)

// MaxPageSize caps how many products one listing page may request.
const MaxPageSize = 1000

// Service encapsulates product use cases.
type Service struct {
	repo     domain.Repository
	validate *validator.Validate
}

// NewService constructs a product service.
func NewService(repo domain.Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

// ListInput holds the paging, filtering and sorting options of a listing.
type ListInput struct {
	Page         int    `validate:"gt=0"`
	PageSize     int    `validate:"gt=0,lte=1000"`
	CategoryCode string `validate:"max=50"`
	ProductCode  string `validate:"max=50"`
	SortBy       string
	SortOrder    string `validate:"omitempty,oneof=asc desc"`
}

// List returns one page of products.
func (s *Service) List(ctx context.Context, input ListInput) (*domain.Page, error) {
	input.SortOrder = strings.ToLower(strings.TrimSpace(input.SortOrder))
	if err := s.validate.Struct(input); err != nil {
		return nil, classifyValidation(err)
	}
	if input.Page-1 > math.MaxInt/input.PageSize {
		return nil, fmt.Errorf("%w: page %d is too large for pageSize %d", domain.ErrPageOutOfRange, input.Page, input.PageSize)
	}

	items, total, err := s.repo.List(ctx, domain.ListFilter{
		CategoryCode: input.CategoryCode,
		ProductCode:  input.ProductCode,
		SortBy:       input.SortBy,
		Descending:   input.SortOrder == "desc",
		Limit:        input.PageSize,
		Offset:       (input.Page - 1) * input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Page{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages(total, input.PageSize),
		CurrentPage: input.Page,
		PageSize:    input.PageSize,
	}, nil
}

func totalPages(total, pageSize int) int {
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

func classifyValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Page":
			return domain.ErrInvalidPagination
		case "PageSize":
			if fe.Tag() == "lte" {
				return fmt.Errorf("%w: pageSize must not exceed %d", domain.ErrPageOutOfRange, MaxPageSize)
			}
			return domain.ErrInvalidPagination
		case "SortOrder":
			return ErrInvalidSortOrder
		}
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s must not exceed %s characters", ErrInvalidFilter, fe.Field(), fe.Param())
}
