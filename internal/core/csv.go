package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errEmptyCSV is the cause when a file has no header or no data rows.
var errEmptyCSV = errors.New("csv is empty")

// ParseCSV reads a header row and all data records.
// Blank lines are skipped, a leading UTF-8 BOM is removed, and every record
// must have as many fields as the header. Header cells are normalized with
// [NormalizeColumnName] and must be non-empty and unique.
func ParseCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)

	rawHeader, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ValidationError("parse csv", errEmptyCSV)
	}
	if err != nil {
		return nil, ValidationError("parse csv", fmt.Errorf("invalid csv header: %w", err))
	}

	header, err := normalizeHeader(rawHeader)
	if err != nil {
		return nil, ValidationError("parse csv", err)
	}

	var records []Record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ValidationError("parse csv", fmt.Errorf("invalid csv: %w", err))
		}

		rec := make(Record, len(header))
		for i, name := range header {
			rec[name] = fields[i]
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ValidationError("parse csv", errEmptyCSV)
	}

	return &Table{Header: header, Records: records}, nil
}

func normalizeHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := NormalizeColumnName(h)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate column %q (columns %d and %d)", name, prev+1, i+1)
		}
		seen[name] = i
		header[i] = name
	}
	return header, nil
}
