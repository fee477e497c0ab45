package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"catalog/backend/internal/usecase/importer"

	"github.com/xuri/excelize/v2"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrHeaderMismatch is returned when the header row does not name the expected columns.
	ErrHeaderMismatch = errors.New("header does not match productName, productCode, categoryName, categoryCode")
	// ErrColumnCount is returned for a record that does not have exactly one field per column.
	ErrColumnCount = errors.New("unexpected number of fields")
)

// columns lists the normalized header names in their fixed order.
var columns = []string{"productname", "productcode", "categoryname", "categorycode"}

// Options configures how input files are parsed.
type Options struct {
	// Delimiter separates fields in text files. Defaults to ','.
	Delimiter rune
	// HasHeader marks the first record as a header row.
	HasHeader bool
}

// File reads import rows from delimited text files or .xlsx workbooks.
type File struct {
	opts Options
}

var _ importer.Source = (*File)(nil)

// NewFile constructs a file source.
func NewFile(opts Options) *File {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &File{opts: opts}
}

type record struct {
	line   int
	fields []string
}

// Read parses the file at path. An empty file yields no rows and no error.
func (f *File) Read(ctx context.Context, path string) ([]importer.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		records []record
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path)
	default:
		records, err = readDelimited(path, f.opts.Delimiter)
	}
	if err != nil {
		return nil, err
	}
	return f.toRows(records)
}

func (f *File) toRows(records []record) ([]importer.Row, error) {
	var rows []importer.Row
	for i, rec := range records {
		if i == 0 && f.opts.HasHeader {
			if err := checkHeader(rec.fields); err != nil {
				return nil, &importer.LineError{Line: rec.line, Err: err}
			}
			continue
		}
		if len(rec.fields) != len(columns) {
			return nil, &importer.LineError{
				Line: rec.line,
				Err:  fmt.Errorf("got %d fields, want %d: %w", len(rec.fields), len(columns), ErrColumnCount),
			}
		}
		rows = append(rows, importer.Row{
			ProductName:  strings.TrimSpace(rec.fields[0]),
			ProductCode:  strings.TrimSpace(rec.fields[1]),
			CategoryName: strings.TrimSpace(rec.fields[2]),
			CategoryCode: strings.TrimSpace(rec.fields[3]),
		})
	}
	return rows, nil
}

func checkHeader(fields []string) error {
	if len(fields) != len(columns) {
		return ErrHeaderMismatch
	}
	for i, field := range fields {
		if normalizeHeader(field) != columns[i] {
			return ErrHeaderMismatch
		}
	}
	return nil
}

func normalizeHeader(value string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(value)))
}

func readDelimited(path string, delimiter rune) ([]record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// BOMOverride drops a leading byte order mark before the first field is parsed.
	decoded := transform.NewReader(file, textunicode.BOMOverride(textunicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

// readWorkbook reads the first sheet. Empty rows are skipped and short rows
// are padded, since spreadsheets drop trailing empty cells.
func readWorkbook(path string) ([]record, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var records []record
	for i, cells := range rows {
		if isEmptyRow(cells) {
			continue
		}
		for len(cells) < len(columns) {
			cells = append(cells, "")
		}
		records = append(records, record{line: i + 1, fields: cells})
	}
	return records, nil
}

func isEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
