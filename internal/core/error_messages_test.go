package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:       "validation",
			err:        ValidationError("parse csv", errors.New("csv is empty")),
			wantCode:   "VAL001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "provisioning",
			err:        ProvisioningError("launch", errors.New("image pull failed")),
			wantCode:   "PRV001",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "port conflict wins over provisioning",
			err:        ProvisioningError("reserve port", fmt.Errorf("port 6001: %w", ErrPortConflict)),
			wantCode:   "PRV002",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "connection timeout",
			err:        ConnectionTimeoutError("wait", errors.New("connection refused")),
			wantCode:   "CON001",
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "load",
			err:        LoadError("insert", errors.New("row 2: bad value")),
			wantCode:   "LOD001",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "query",
			err:        QueryError("execute", errors.New(`relation "nope" does not exist`)),
			wantCode:   "QRY001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        NotFoundError("abc"),
			wantCode:   "NF001",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "too many imports",
			err:        ErrTooManyImports,
			wantCode:   "UPL002",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "wrapped cancel",
			err:        fmt.Errorf("acquire: %w", context.Canceled),
			wantCode:   "UPL004",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantCode:   "UPL005",
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "file too large pattern",
			err:        errors.New("File Too Large: 200MB"),
			wantCode:   "FILE001",
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "no file pattern",
			err:        errors.New("no file provided"),
			wantCode:   "FILE004",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unencodable response pattern",
			err:        errors.New("cannot encode response: json: unsupported value: NaN"),
			wantCode:   "RES001",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error",
			err:        errors.New("something strange"),
			wantCode:   "ERR000",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got.Status, tt.wantStatus)
			}
			if tt.err != nil && got.Action == "" {
				t.Error("Action is empty")
			}
		})
	}
}

func TestMapErrorWith_QueryMessages(t *testing.T) {
	err := QueryError("execute", errors.New(`no such column: "nope"`))

	exposed := MapErrorWith(err, MapErrorOptions{})
	if exposed.Message != `no such column: "nope"` {
		t.Errorf("exposed Message = %q, want the engine message", exposed.Message)
	}

	hardened := MapErrorWith(err, MapErrorOptions{HideQueryErrors: true})
	if strings.Contains(hardened.Message, "nope") {
		t.Errorf("hardened Message leaks engine detail: %q", hardened.Message)
	}
	if hardened.Code != "QRY001" {
		t.Errorf("hardened Code = %q, want QRY001", hardened.Code)
	}
}

func TestMapError_AppendsCause(t *testing.T) {
	msg := MapError(LoadError("insert", errors.New("row 2: invalid integer")))
	if !strings.HasSuffix(msg.Message, ": row 2: invalid integer") {
		t.Errorf("Message = %q, want the cause appended", msg.Message)
	}

	msg = MapError(ValidationError("parse csv", errors.New(`duplicate column "name"`)))
	if !strings.Contains(msg.Message, `duplicate column "name"`) {
		t.Errorf("Message = %q, want the cause appended", msg.Message)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(NotFoundError("x"))
	want := "Dataset not found (Code: NF001). Check the dataset ID or import the CSV again"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: ErrLoad}, "load error"},
		{&Error{Kind: ErrLoad, Op: "insert"}, "insert: load error"},
		{&Error{Kind: ErrLoad, Err: errors.New("boom")}, "load error: boom"},
		{&Error{Kind: ErrLoad, Op: "insert", Err: errors.New("boom")}, "insert: load error: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestClassify_KeepsExistingKind(t *testing.T) {
	conflict := ProvisioningError("reserve port", ErrPortConflict)

	err := classify(ErrLoad, "load", conflict)
	if KindOf(err) != ErrProvisioning {
		t.Errorf("KindOf = %v, want provisioning", KindOf(err))
	}

	err = classify(ErrLoad, "load", errors.New("plain"))
	if KindOf(err) != ErrLoad {
		t.Errorf("KindOf = %v, want load", KindOf(err))
	}

	if classify(ErrLoad, "load", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
