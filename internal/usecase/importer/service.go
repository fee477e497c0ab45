package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"
	"catalog/backend/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outcome is the terminal state of an import run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeEmptyInput
	OutcomeFetchFailed
	OutcomeValidationAborted
	OutcomeNoValidRows
	OutcomePersistFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmptyInput:
		return "empty_input"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeValidationAborted:
		return "validation_aborted"
	case OutcomeNoValidRows:
		return "no_valid_rows"
	case OutcomePersistFailed:
		return "persist_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result summarises an import run.
type Result struct {
	Outcome           Outcome
	RowsRead          int
	Accepted          int
	Rejected          int
	Diagnostics       []string
	CategoriesCreated int
	ProductsCreated   int
	Changes           int
	// FailedLine is the input line that stopped the read, when the source reported one.
	FailedLine int
	// Err is the failure behind a non-success outcome, when there is one.
	Err error
}

// Source parses an input file into rows.
type Source interface {
	Read(ctx context.Context, path string) ([]Row, error)
}

// ProductReader lists stored products.
type ProductReader interface {
	All(ctx context.Context) ([]*product.Product, error)
}

// Service runs the import pipeline: read, fetch existing codes, validate,
// resolve categories and persist.
type Service struct {
	source     Source
	products   ProductReader
	categories category.Repository
	uow        UnitOfWork
	settings   Settings
	logger     zerolog.Logger
	metrics    *observability.Metrics
	nowFunc    func() time.Time
}

// NewService constructs an import service.
func NewService(source Source, products ProductReader, categories category.Repository, uow UnitOfWork, settings Settings, logger zerolog.Logger) *Service {
	return &Service{
		source:     source,
		products:   products,
		categories: categories,
		uow:        uow,
		settings:   settings,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// WithMetrics records every run on m.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// Run executes one import of the file at path. Failures are reported
// through the returned Result, never as a panic or error return.
func (s *Service) Run(ctx context.Context, path string) Result {
	start := s.nowFunc()
	result := s.run(ctx, path)
	if s.metrics != nil {
		s.metrics.RecordImport(result.Outcome.String(), result.Accepted, result.Rejected, result.Changes, s.nowFunc().Sub(start))
	}
	return result
}

func (s *Service) run(ctx context.Context, path string) Result {
	logger := s.logger.With().Str("file", path).Logger()

	rows, err := s.source.Read(ctx, path)
	if err != nil {
		result := Result{
			Outcome:     OutcomeEmptyInput,
			Diagnostics: []string{fmt.Sprintf("could not read import file: %v", err)},
			Err:         err,
		}
		event := logger.Warn().Err(err)
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			result.FailedLine = lineErr.Line
			event = event.Int("line", lineErr.Line)
		}
		event.Msg(result.Diagnostics[0])
		return result
	}
	if len(rows) == 0 {
		logger.Warn().Msg("no records found in import file")
		return Result{Outcome: OutcomeEmptyInput}
	}
	result := Result{RowsRead: len(rows)}

	existing, err := s.fetchExistingCodes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load existing codes")
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		return result
	}

	validation := Validate(rows, existing, s.settings)
	result.Diagnostics = validation.Diagnostics
	result.Accepted = len(validation.Accepted)
	result.Rejected = validation.Rejected
	for _, diagnostic := range validation.Diagnostics {
		logger.Warn().Msg(diagnostic)
	}
	if validation.Aborted {
		logger.Error().Msg("validation failed with stop-on-error set, import aborted without changes")
		result.Outcome = OutcomeValidationAborted
		return result
	}
	logger.Info().
		Int("valid", result.Accepted).
		Int("invalid", result.Rejected).
		Msgf("Valid records: %d, Invalid records: %d", result.Accepted, result.Rejected)

	if len(validation.Accepted) == 0 {
		logger.Warn().Msg("no valid records to import")
		result.Outcome = OutcomeNoValidRows
		return result
	}

	categories, products, err := s.build(ctx, validation.Accepted)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve categories")
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		return result
	}

	changes, err := persist(ctx, s.uow, categories, products)
	if err != nil {
		logger.Error().Err(err).Msg("failed to persist import, no changes saved")
		result.Outcome = OutcomePersistFailed
		result.Err = err
		return result
	}

	result.CategoriesCreated = len(categories)
	result.ProductsCreated = len(products)
	result.Changes = changes
	if changes > 0 {
		logger.Info().Int("changes", changes).Msgf("%d changes saved", changes)
	}
	result.Outcome = OutcomeSuccess
	return result
}

func (s *Service) fetchExistingCodes(ctx context.Context) (Codes, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return Codes{}, fmt.Errorf("load products: %w", err)
	}
	categories, err := s.categories.All(ctx)
	if err != nil {
		return Codes{}, fmt.Errorf("load categories: %w", err)
	}

	codes := NewCodes()
	for _, p := range products {
		codes.Products[product.NormalizeCode(p.Code)] = struct{}{}
	}
	for _, c := range categories {
		codes.Categories[product.NormalizeCode(c.Code)] = struct{}{}
	}
	return codes, nil
}

// build resolves each accepted row's category and creates its product.
// It returns only the categories that still need to be stored.
func (s *Service) build(ctx context.Context, rows []Row) ([]*category.Category, []*product.Product, error) {
	now := s.nowFunc().UTC()
	res := newResolver(s.categories, now)

	products := make([]*product.Product, 0, len(rows))
	for i, row := range rows {
		c, err := res.resolve(ctx, row)
		if err != nil {
			return nil, nil, err
		}
		// Postgres keeps microseconds, so each row gets its own tick and the
		// default listing order follows the file.
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		products = append(products, &product.Product{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(row.ProductName),
			Code:         strings.TrimSpace(row.ProductCode),
			CategoryCode: c.Code,
			CreatedAt:    createdAt,
		})
	}
	return res.pending, products, nil
}
