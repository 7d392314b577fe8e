package core

import (
	"math"
	"strings"
	"testing"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := map[string]string{
		"Name":       "name",
		"  Age  ":    "age",
		"First Name": "first name",
		"":           "",
	}
	for in, want := range tests {
		if got := NormalizeColumnName(in); got != want {
			t.Errorf("NormalizeColumnName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		typ     ColumnType
		want    any
		wantErr bool
	}{
		{"integer", "42", TypeInteger, int64(42), false},
		{"negative integer", "-7", TypeInteger, int64(-7), false},
		{"integer trimmed", " 5 ", TypeInteger, int64(5), false},
		{"bigint max", "9223372036854775807", TypeBigint, int64(math.MaxInt64), false},
		{"bigint overflow", "9223372036854775808", TypeBigint, nil, true},
		{"integer garbage", "4x", TypeInteger, nil, true},
		{"real", "9.5", TypeReal, 9.5, false},
		{"real from integer text", "8", TypeReal, 8.0, false},
		{"real garbage", "nine", TypeReal, nil, true},
		{"text passes through trimmed", "  hello ", TypeText, "hello", false},
		{"empty integer is null", "", TypeInteger, nil, false},
		{"whitespace real is null", "   ", TypeReal, nil, false},
		{"empty text is null", "", TypeText, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceValue(tt.raw, tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CoerceValue(%q, %s) = %v, want error", tt.raw, tt.typ, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CoerceValue(%q, %s) returned error: %v", tt.raw, tt.typ, err)
			}
			if got != tt.want {
				t.Errorf("CoerceValue(%q, %s) = %#v, want %#v", tt.raw, tt.typ, got, tt.want)
			}
		})
	}
}

func TestCoerceRecord(t *testing.T) {
	columns := []ColumnDescriptor{
		{Name: "id", Type: TypeInteger},
		{Name: "age", Type: TypeInteger},
		{Name: "score", Type: TypeReal},
	}

	values, err := CoerceRecord(Record{"id": "2", "age": "", "score": "8"}, columns, 2)
	if err != nil {
		t.Fatalf("CoerceRecord failed: %v", err)
	}
	if values[0] != int64(2) || values[1] != nil || values[2] != 8.0 {
		t.Errorf("values = %#v", values)
	}

	_, err = CoerceRecord(Record{"id": "x"}, columns, 7)
	if err == nil {
		t.Fatal("expected error for bad integer")
	}
	if !strings.Contains(err.Error(), `row 7, column "id"`) {
		t.Errorf("error %q does not name the row and column", err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := map[string]string{
		"data":       `"data"`,
		"first name": `"first name"`,
		`we"ird`:     `"we""ird"`,
	}
	for in, want := range tests {
		if got := QuoteIdentifier(in); got != want {
			t.Errorf("QuoteIdentifier(%q) = %s, want %s", in, got, want)
		}
	}

	quoted := QuoteColumns([]ColumnDescriptor{{Name: "a"}, {Name: "b c"}})
	if strings.Join(quoted, ",") != `"a","b c"` {
		t.Errorf("QuoteColumns = %v", quoted)
	}
}
