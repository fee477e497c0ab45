package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog/backend/internal/domain/product"
	productusecase "catalog/backend/internal/usecase/product"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultPage     = 1
	defaultPageSize = 10

	invalidPaginationMessage = "Page and pageSize must be greater than zero."
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, ok := parsePositive(query.Get("page"), defaultPage)
	if !ok {
		writeError(w, http.StatusBadRequest, invalidPaginationMessage)
		return
	}
	pageSize, ok := parsePositive(query.Get("pageSize"), defaultPageSize)
	if !ok {
		writeError(w, http.StatusBadRequest, invalidPaginationMessage)
		return
	}

	result, err := s.deps.Products.List(r.Context(), productusecase.ListInput{
		Page:         page,
		PageSize:     pageSize,
		CategoryCode: query.Get("categoryCode"),
		ProductCode:  query.Get("productCode"),
		SortBy:       strings.ToLower(strings.TrimSpace(query.Get("sortBy"))),
		SortOrder:    query.Get("sortOrder"),
	})
	if err != nil {
		switch {
		case errors.Is(err, product.ErrInvalidPagination):
			writeError(w, http.StatusBadRequest, invalidPaginationMessage)
		case errors.Is(err, product.ErrPageOutOfRange),
			errors.Is(err, productusecase.ErrInvalidSortOrder),
			errors.Is(err, productusecase.ErrInvalidFilter):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().
				Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("list products failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, newPageResponse(result))
}

// parsePositive returns fallback for an absent value and false for anything
// that is not an integer greater than zero.
func parsePositive(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
