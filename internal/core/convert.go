package core

// convert.go provides the conversions shared by every backend's Loader:
//
//   - Column names are trimmed and lowercased
//   - Cell values are trimmed; empty cells become NULL regardless of type
//   - INTEGER/BIGINT parse as base-10 int64, REAL as float64, TEXT passes through
//
// Backends decide how a nil value or an int64 is bound; the rules for what a
// cell means live here so both engines agree.

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeColumnName returns the stored form of a CSV header cell.
func NormalizeColumnName(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// CoerceValue converts a raw CSV cell to the Go value bound for its column type.
// Empty (after trimming) returns nil, meaning NULL.
func CoerceValue(raw string, t ColumnType) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}

	switch t {
	case TypeInteger, TypeBigint:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		return i, nil
	case TypeReal:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		return f, nil
	default:
		return v, nil
	}
}

// CoerceRecord converts every column of rec in column order.
// line is the 1-based data row number used in error messages.
func CoerceRecord(rec Record, columns []ColumnDescriptor, line int) ([]any, error) {
	values := make([]any, len(columns))
	for i, col := range columns {
		v, err := CoerceValue(rec[col.Name], col.Type)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", line, col.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

// QuoteIdentifier quotes a column or table name for SQL, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteColumns quotes each column name.
func QuoteColumns(columns []ColumnDescriptor) []string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col.Name)
	}
	return quoted
}

// DataTable is the single table every dataset is loaded into.
const DataTable = "data"
