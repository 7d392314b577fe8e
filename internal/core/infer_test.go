package core

import (
	"fmt"
	"testing"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"small integers", []string{"1", "2", "-3"}, TypeInteger},
		{"int32 max stays integer", []string{"2147483647"}, TypeInteger},
		{"int32 min stays integer", []string{"-2147483648"}, TypeInteger},
		{"past int32 max is bigint", []string{"1", "2147483648"}, TypeBigint},
		{"past int32 min is bigint", []string{"-2147483649"}, TypeBigint},
		{"integers beyond int64 are still bigint", []string{"99999999999999999999"}, TypeBigint},
		{"integer and decimal is real", []string{"8", "9.5"}, TypeReal},
		{"negative decimal", []string{"-0.25"}, TypeReal},
		{"one word demotes to text", []string{"1", "2", "x"}, TypeText},
		{"exponent is text", []string{"1e5"}, TypeText},
		{"leading plus is text", []string{"+1"}, TypeText},
		{"trailing dot is text", []string{"1."}, TypeText},
		{"empty values ignored", []string{"", "  ", "30"}, TypeInteger},
		{"values are trimmed", []string{" 42 ", "7"}, TypeInteger},
		{"all empty is text", []string{"", " ", ""}, TypeText},
		{"no values is text", nil, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferColumnType(tt.values); got != tt.want {
				t.Errorf("InferColumnType(%q) = %s, want %s", tt.values, got, tt.want)
			}
		})
	}
}

func TestInferSchema(t *testing.T) {
	table := &Table{
		Header: []string{"id", "age", "score", "name"},
		Records: []Record{
			{"id": "1", "age": "30", "score": "9.5", "name": "ann"},
			{"id": "2", "age": "", "score": "8", "name": "bo"},
		},
	}

	got := InferSchema(table)
	want := []ColumnDescriptor{
		{Name: "id", Type: TypeInteger},
		{Name: "age", Type: TypeInteger},
		{Name: "score", Type: TypeReal},
		{Name: "name", Type: TypeText},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestInferSchema_SamplesLeadingRows(t *testing.T) {
	var records []Record
	for i := 0; i < SampleSize; i++ {
		records = append(records, Record{"n": fmt.Sprint(i)})
	}
	// Past the sample window, so it must not affect the inferred type.
	records = append(records, Record{"n": "not a number"})

	got := InferSchema(&Table{Header: []string{"n"}, Records: records})
	if got[0].Type != TypeInteger {
		t.Errorf("type = %s, want %s", got[0].Type, TypeInteger)
	}

	records[SampleSize-1] = Record{"n": "not a number"}
	got = InferSchema(&Table{Header: []string{"n"}, Records: records})
	if got[0].Type != TypeText {
		t.Errorf("type = %s, want %s", got[0].Type, TypeText)
	}
}

func TestColumnType_IsInteger(t *testing.T) {
	for typ, want := range map[ColumnType]bool{
		TypeInteger: true,
		TypeBigint:  true,
		TypeReal:    false,
		TypeText:    false,
	} {
		if got := typ.IsInteger(); got != want {
			t.Errorf("%s.IsInteger() = %v, want %v", typ, got, want)
		}
	}
}
