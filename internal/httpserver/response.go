package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"catalog/backend/internal/domain/product"
)

type errorResponse struct {
	Error string `json:"error"`
}

type productResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	CategoryCode string `json:"categoryCode"`
}

type pageResponse struct {
	Items       []productResponse `json:"items"`
	TotalCount  int               `json:"totalCount"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	PageSize    int               `json:"pageSize"`
}

func newPageResponse(page *product.Page) pageResponse {
	items := make([]productResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, productResponse{
			ID:           p.ID,
			Name:         p.Name,
			Code:         p.Code,
			CategoryCode: p.CategoryCode,
		})
	}
	return pageResponse{
		Items:       items,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
