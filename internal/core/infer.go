package core

import (
	"regexp"
	"strconv"
	"strings"
)

// SampleSize is the number of leading rows used for type inference.
const SampleSize = 20

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	decimalPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// InferColumnType returns the most specific type consistent with every
// non-empty value. Values are trimmed; empty values are ignored, and a column
// with no non-empty values is TEXT.
func InferColumnType(values []string) ColumnType {
	present := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return TypeText
	}

	allInteger, allInt32 := true, true
	for _, v := range present {
		if !integerPattern.MatchString(v) {
			allInteger = false
			break
		}
		if allInt32 {
			if _, err := strconv.ParseInt(v, 10, 32); err != nil {
				allInt32 = false
			}
		}
	}
	switch {
	case allInteger && allInt32:
		return TypeInteger
	case allInteger:
		return TypeBigint
	}

	for _, v := range present {
		if !decimalPattern.MatchString(v) {
			return TypeText
		}
	}
	return TypeReal
}

// InferSchema derives one ColumnDescriptor per header column from the first
// min(SampleSize, len(t.Records)) records.
func InferSchema(t *Table) []ColumnDescriptor {
	sample := t.Records
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	columns := make([]ColumnDescriptor, len(t.Header))
	values := make([]string, len(sample))
	for i, name := range t.Header {
		for j, rec := range sample {
			values[j] = rec[name]
		}
		columns[i] = ColumnDescriptor{Name: name, Type: InferColumnType(values)}
	}
	return columns
}
