package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/product"
	"catalog/backend/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeline struct {
	source     *fakeSource
	products   *fakeProducts
	categories *fakeCategories
	uow        *fakeUnitOfWork
	service    *Service
}

func newPipeline(rows []Row, settings Settings) *pipeline {
	p := &pipeline{
		source:     &fakeSource{rows: rows},
		products:   &fakeProducts{},
		categories: &fakeCategories{},
		uow:        &fakeUnitOfWork{},
	}
	p.service = NewService(p.source, p.products, p.categories, p.uow, settings, zerolog.Nop())
	return p
}

func TestService_Run_Success(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
	}, Settings{})

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Rejected)
	assert.Len(t, result.Diagnostics, 2)

	require.Len(t, p.uow.categories, 1)
	require.Len(t, p.uow.products, 1)
	assert.Equal(t, "Tools", p.uow.categories[0].Name)
	assert.Equal(t, "T1", p.uow.categories[0].Code)
	assert.Equal(t, "Widget", p.uow.products[0].Name)
	assert.Equal(t, "W1", p.uow.products[0].Code)
	assert.Equal(t, "T1", p.uow.products[0].CategoryCode)
	assert.Equal(t, 1, p.uow.saves)
	assert.Equal(t, 1, result.CategoriesCreated)
	assert.Equal(t, 1, result.ProductsCreated)
	assert.Equal(t, 2, result.Changes)
}

func TestService_Run_ProductsReferenceStoredCategoryCode(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: " T1 "},
	}, Settings{})

	result := p.service.Run(context.Background(), "products.csv")

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Len(t, p.uow.products, 1)
	assert.Equal(t, "T1", p.uow.products[0].CategoryCode)
	assert.NotEmpty(t, p.uow.products[0].ID)
	assert.False(t, p.uow.products[0].CreatedAt.IsZero())
}

func TestService_Run_ProductsKeepFileOrder(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "G1", CategoryName: "Parts", CategoryCode: "T2"},
		{ProductName: "Anvil", ProductCode: "A1", CategoryName: "Forge", CategoryCode: "T3"},
	}, Settings{})

	result := p.service.Run(context.Background(), "products.csv")

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, 3, result.Accepted)
	require.Len(t, p.uow.products, 3)
	for i := 1; i < len(p.uow.products); i++ {
		assert.True(t, p.uow.products[i].CreatedAt.After(p.uow.products[i-1].CreatedAt), "row %d", i)
	}
}

func TestService_Run_EmptyInputMakesNoStorageCalls(t *testing.T) {
	p := newPipeline(nil, Settings{})

	result := p.service.Run(context.Background(), "empty.csv")

	assert.Equal(t, OutcomeEmptyInput, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, p.source.calls)
	assert.Zero(t, p.products.calls)
	assert.Zero(t, p.categories.allCalls)
	assert.Zero(t, p.categories.findCalls)
	assert.Zero(t, p.uow.saves)
}

func TestService_Run_ReadFailureIsEmptyInput(t *testing.T) {
	p := newPipeline(nil, Settings{})
	p.source.err = errors.New("open missing.csv: no such file or directory")

	result := p.service.Run(context.Background(), "missing.csv")

	assert.Equal(t, OutcomeEmptyInput, result.Outcome)
	assert.Error(t, result.Err)
	assert.Zero(t, p.products.calls)
	assert.Zero(t, p.uow.saves)
}

func TestService_Run_MalformedLineNamesTheLine(t *testing.T) {
	var logs bytes.Buffer
	p := newPipeline(nil, Settings{})
	p.source.err = &LineError{Line: 2, Err: fmt.Errorf("got 3 fields, want 4")}
	p.service = NewService(p.source, p.products, p.categories, p.uow, Settings{}, zerolog.New(&logs))

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomeEmptyInput, result.Outcome)
	assert.Equal(t, 2, result.FailedLine)
	assert.Equal(t, []string{"could not read import file: line 2: got 3 fields, want 4"}, result.Diagnostics)
	assert.Zero(t, p.products.calls)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, 2, entry["line"])
	assert.Equal(t, "could not read import file: line 2: got 3 fields, want 4", entry["message"])
}

func TestService_Run_FetchFailed(t *testing.T) {
	t.Run("products", func(t *testing.T) {
		p := newPipeline([]Row{{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"}}, Settings{})
		p.products.err = errors.New("database unreachable")

		result := p.service.Run(context.Background(), "products.csv")

		assert.Equal(t, OutcomeFetchFailed, result.Outcome)
		assert.ErrorContains(t, result.Err, "load products")
		assert.Zero(t, p.uow.saves)
	})

	t.Run("categories", func(t *testing.T) {
		p := newPipeline([]Row{{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"}}, Settings{})
		p.categories.allErr = errors.New("database unreachable")

		result := p.service.Run(context.Background(), "products.csv")

		assert.Equal(t, OutcomeFetchFailed, result.Outcome)
		assert.ErrorContains(t, result.Err, "load categories")
		assert.Zero(t, p.uow.saves)
	})

	t.Run("category lookup", func(t *testing.T) {
		p := newPipeline([]Row{{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"}}, Settings{})
		p.categories.findErr = errors.New("database unreachable")

		result := p.service.Run(context.Background(), "products.csv")

		assert.Equal(t, OutcomeFetchFailed, result.Outcome)
		assert.Error(t, result.Err)
		assert.Empty(t, p.uow.products)
		assert.Zero(t, p.uow.saves)
	})
}

func TestService_Run_ExistingCodesRejected(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "w1", CategoryName: "Tools", CategoryCode: "T5"},
		{ProductName: "Gadget", ProductCode: "G1", CategoryName: "Tools", CategoryCode: "t1 "},
		{ProductName: "Sprocket", ProductCode: "S1", CategoryName: "Parts", CategoryCode: "P1"},
	}, Settings{})
	p.products.items = []*product.Product{{ID: "p-1", Name: "Widget", Code: "W1", CategoryCode: "T1"}}
	p.categories.items = []*category.Category{{ID: "c-1", Name: "Tools", Code: "T1"}}

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, []string{
		"L1: Product Code 'w1' already exists.",
		"L2: Category Code 't1' already exists.",
	}, result.Diagnostics)
	require.Len(t, p.uow.products, 1)
	assert.Equal(t, "S1", p.uow.products[0].Code)
}

func TestService_Run_ValidationAborted(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "", CategoryName: "Parts", CategoryCode: "T2"},
		{ProductName: "Sprocket", ProductCode: "W3", CategoryName: "Misc", CategoryCode: "T3"},
	}, Settings{StopOnError: true})

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomeValidationAborted, result.Outcome)
	assert.Equal(t, []string{"L2: Product Code is missing."}, result.Diagnostics)
	assert.Zero(t, result.Accepted)
	assert.Empty(t, p.uow.categories)
	assert.Empty(t, p.uow.products)
	assert.Zero(t, p.uow.saves)
	assert.Zero(t, p.categories.findCalls)
}

func TestService_Run_NoValidRows(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
	}, Settings{})

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomeNoValidRows, result.Outcome)
	assert.Equal(t, 1, result.Rejected)
	assert.Zero(t, p.uow.saves)
}

func TestService_Run_PersistFailed(t *testing.T) {
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
	}, Settings{})
	p.uow.saveErr = product.ErrDuplicateCode

	result := p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, OutcomePersistFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, product.ErrDuplicateCode)
	assert.Equal(t, 1, p.uow.saves)
	assert.Zero(t, result.Changes)
	assert.Zero(t, result.ProductsCreated)
}

func TestService_Run_RecordsMetrics(t *testing.T) {
	metrics := observability.NewMetrics("test_import", prometheus.NewRegistry())
	p := newPipeline([]Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "", ProductCode: "W2", CategoryName: "Parts", CategoryCode: "T2"},
	}, Settings{})
	p.service.WithMetrics(metrics)

	p.service.Run(context.Background(), "products.csv")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ImportRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ImportRowsTotal.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ImportRowsTotal.WithLabelValues("rejected")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ImportChangesTotal))
}

func TestPersist_NothingPending(t *testing.T) {
	uow := &fakeUnitOfWork{}

	changes, err := persist(context.Background(), uow, nil, nil)

	require.NoError(t, err)
	assert.Zero(t, changes)
	assert.Zero(t, uow.saves)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "validation_aborted", OutcomeValidationAborted.String())
	assert.Equal(t, "persist_failed", OutcomePersistFailed.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
