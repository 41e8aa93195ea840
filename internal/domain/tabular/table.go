package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/schemaforge/backend/pkg/errors"
)

// Table is a decoded tabular dataset: lower-cased headers in input order plus
// one map per data row keyed by those headers. Row order is preserved.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// HasColumns reports which of the given column names are absent from the table
func (t *Table) HasColumns(required []string) (missing []string) {
	present := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		present[h] = true
	}
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// xlsx files are zip archives
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Decode reads an uploaded file into a Table, choosing the format from the
// file extension and falling back to content sniffing.
func Decode(filename string, data []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return DecodeXLSX(filename, data)
	case ".csv":
		return DecodeCSV(filename, data)
	}
	if bytes.HasPrefix(data, zipMagic) {
		return DecodeXLSX(filename, data)
	}
	return DecodeCSV(filename, data)
}

// DecodeCSV parses CSV bytes. The first row is the header row; short rows are
// padded with empty strings and long rows truncated so every row map carries
// exactly the header set.
func DecodeCSV(filename string, data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	// Real-world exports have ragged rows and sloppy quoting
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewInvalidFormatError(filename, errors.New("empty file: no header row"))
		}
		return nil, apperrors.NewInvalidFormatError(filename, err)
	}

	headers := normalizeHeaders(header)

	table := &Table{Headers: headers}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewInvalidFormatError(filename, err)
		}
		table.Rows = append(table.Rows, rowToMap(headers, row))
	}

	return table, nil
}

// DecodeXLSX parses the first sheet of an xlsx workbook. The first row is the
// header row.
func DecodeXLSX(filename string, data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewInvalidFormatError(filename, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInvalidFormatError(filename, errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewInvalidFormatError(filename, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInvalidFormatError(filename, errors.New("empty sheet: no header row"))
	}

	headers := normalizeHeaders(rows[0])

	table := &Table{Headers: headers}
	for _, row := range rows[1:] {
		table.Rows = append(table.Rows, rowToMap(headers, row))
	}

	return table, nil
}

// normalizeHeaders lower-cases header cells so column matching is
// case-insensitive. Cell contents below the header row are left untouched.
func normalizeHeaders(header []string) []string {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func rowToMap(headers, row []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			m[h] = row[i]
		} else {
			m[h] = ""
		}
	}
	return m
}

// String renders a compact description for logs
func (t *Table) String() string {
	return fmt.Sprintf("table{columns=%d rows=%d}", len(t.Headers), len(t.Rows))
}
