package importer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"catalog/backend/internal/domain/product"
)

// Validation is the result of checking a batch of rows.
type Validation struct {
	Accepted    []Row
	Diagnostics []string
	Rejected    int
	// Aborted is set when StopOnError discarded the batch.
	Aborted bool
}

// Validate checks every row for required fields and code uniqueness against
// existing storage and earlier rows of the same batch. Diagnostics are
// prefixed with the 1-based row number.
func Validate(rows []Row, existing Codes, settings Settings) Validation {
	var result Validation
	batch := NewCodes()

	for i, row := range rows {
		problems := checkRow(row, existing, batch)
		if len(problems) == 0 {
			result.Accepted = append(result.Accepted, row)
			continue
		}

		for _, problem := range problems {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("L%d: %s", i+1, problem))
		}
		result.Rejected++

		if settings.StopOnError {
			result.Accepted = nil
			result.Aborted = true
			return result
		}
	}
	return result
}

func checkRow(row Row, existing, batch Codes) []string {
	var problems []string

	if isBlank(row.ProductName) {
		problems = append(problems, "Product Name is missing.")
	}
	if isBlank(row.ProductCode) {
		problems = append(problems, "Product Code is missing.")
	}
	if isBlank(row.CategoryName) {
		problems = append(problems, "Category Name is missing.")
	}
	if isBlank(row.CategoryCode) {
		problems = append(problems, "Category Code is missing.")
	}

	// Codes are claimed on first sighting even when the row fails for another reason.
	if code := strings.TrimSpace(row.ProductCode); code != "" && !claim(code, existing.Products, batch.Products) {
		problems = append(problems, fmt.Sprintf("Product Code '%s' already exists.", code))
	}
	if code := strings.TrimSpace(row.CategoryCode); code != "" && !claim(code, existing.Categories, batch.Categories) {
		problems = append(problems, fmt.Sprintf("Category Code '%s' already exists.", code))
	}

	problems = appendTooLong(problems, "Product Name", row.ProductName, product.MaxNameLength)
	problems = appendTooLong(problems, "Product Code", row.ProductCode, product.MaxCodeLength)
	problems = appendTooLong(problems, "Category Name", row.CategoryName, product.MaxNameLength)
	problems = appendTooLong(problems, "Category Code", row.CategoryCode, product.MaxCodeLength)

	return problems
}

// claim reports whether code is unknown to storage and to the batch so far.
func claim(code string, stored, batch map[string]struct{}) bool {
	key := product.NormalizeCode(code)
	if _, ok := stored[key]; ok {
		return false
	}
	if _, ok := batch[key]; ok {
		return false
	}
	batch[key] = struct{}{}
	return true
}

func appendTooLong(problems []string, field, value string, limit int) []string {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > limit {
		return append(problems, fmt.Sprintf("%s exceeds %d characters.", field, limit))
	}
	return problems
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
