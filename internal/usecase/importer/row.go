package importer

import "fmt"

// Row is one parsed input record in the fixed column order
// productName, productCode, categoryName, categoryCode.
type Row struct {
	ProductName  string
	ProductCode  string
	CategoryName string
	CategoryCode string
}

// LineError reports an input line a Source could not turn into a Row.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Settings controls batch behaviour for a run.
type Settings struct {
	// StopOnError aborts the whole batch with zero writes when any row is invalid.
	StopOnError bool
}

// Codes holds the normalized product and category codes already in storage.
type Codes struct {
	Products   map[string]struct{}
	Categories map[string]struct{}
}

// NewCodes returns an empty code registry.
func NewCodes() Codes {
	return Codes{
		Products:   make(map[string]struct{}),
		Categories: make(map[string]struct{}),
	}
}
