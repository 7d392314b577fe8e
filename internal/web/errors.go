package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical detail and the request ID (server-side)
//   - Returned as JSON with a user-facing message, a suggested action and a code
//
// The status code comes from the error's kind via core.MapErrorWith, so
// handlers never pick statuses themselves.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/logging"
)

// Transport-level failures. Their text matches core's pattern table.
var (
	errFileTooLarge   = errors.New("file too large")
	errNoFile         = errors.New("no file provided")
	errInvalidRequest = errors.New("invalid request body")
	errEncodeResponse = errors.New("cannot encode response")
)

// ErrorResponse represents the JSON structure for API error responses.
// Error and Message carry the same text; Error keeps the {"error": ...}
// shape existing clients read.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its mapped JSON response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapErrorWith(err, s.errOpts)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	_ = writeJSON(w, msg.Status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
