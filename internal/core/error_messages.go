// Package core provides the business logic for CSV import operations.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Codes are chosen by error kind first; unclassified errors fall back to the
// pattern table and finally to ERR000.
//
//	VAL001 - Invalid upload: The CSV could not be imported as given (400)
//	PRV001 - Provisioning failed: The database instance could not be started (502)
//	PRV002 - Port conflict: Another dataset holds this instance's port (409)
//	CON001 - Instance not ready: The database did not accept connections in time (504)
//	LOD001 - Load failed: A row could not be parsed or inserted (422)
//	QRY001 - Query failed: The engine rejected the statement (400)
//	NF001  - Not found: No dataset with this ID (404)
//	UPL002 - System busy: Too many imports in progress (503)
//	UPL004 - Request cancelled (400)
//	UPL005 - Request timeout (504)
//	RES001 - Result not encodable: NaN or infinite floats (500)
//	ERR000 - Unknown error (500)
//
// For QRY001 the engine's own message replaces the generic text unless
// hardening is requested, see [MapErrorOptions]. VAL001 and LOD001 append the
// cause, which names the offending header or row.
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the application logs for the dataset_id and the technical error
//  3. If ERR000, the logs hold the only useful detail
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Status  int    // HTTP status suggestion
}

type kindMessage struct {
	kind error
	msg  UserMessage
}

// kindMessages is checked in order; ErrPortConflict precedes ErrProvisioning
// because a conflict is also a provisioning error.
var kindMessages = []kindMessage{
	{ErrNotFound, UserMessage{
		Message: "Dataset not found",
		Action:  "Check the dataset ID or import the CSV again",
		Code:    "NF001",
		Status:  http.StatusNotFound,
	}},
	{ErrValidation, UserMessage{
		Message: "The CSV could not be imported",
		Action:  "Upload a comma-separated file with a header row and at least one data row",
		Code:    "VAL001",
		Status:  http.StatusBadRequest,
	}},
	{ErrPortConflict, UserMessage{
		Message: "Another dataset is using this instance's port",
		Action:  "Please try the import again",
		Code:    "PRV002",
		Status:  http.StatusConflict,
	}},
	{ErrProvisioning, UserMessage{
		Message: "The database instance could not be started",
		Action:  "Please try again in a few moments",
		Code:    "PRV001",
		Status:  http.StatusBadGateway,
	}},
	{ErrConnectionTimeout, UserMessage{
		Message: "The database instance did not become ready in time",
		Action:  "Please try the import again",
		Code:    "CON001",
		Status:  http.StatusGatewayTimeout,
	}},
	{ErrLoad, UserMessage{
		Message: "A row could not be loaded",
		Action:  "Check the reported row for values that do not match the column type",
		Code:    "LOD001",
		Status:  http.StatusUnprocessableEntity,
	}},
	{ErrQuery, UserMessage{
		Message: "The query failed",
		Action:  "Check the SQL syntax and the column names of table data",
		Code:    "QRY001",
		Status:  http.StatusBadRequest,
	}},
	{ErrTooManyImports, UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
		Status:  http.StatusServiceUnavailable,
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
		Status:  http.StatusBadRequest,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
		Status:  http.StatusGatewayTimeout,
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches unclassified errors from the transport layer.
// Patterns are matched case-insensitively using strings.Contains.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
			Status:  http.StatusRequestEntityTooLarge,
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
			Status:  http.StatusBadRequest,
		},
	},
	{
		pattern: "cannot encode response",
		msg: UserMessage{
			Message: "The result could not be encoded as JSON",
			Action:  "Cast NaN or infinite values to text in the query",
			Code:    "RES001",
			Status:  http.StatusInternalServerError,
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  `Send JSON of the form {"query": "SELECT ..."}`,
			Code:    "REQ001",
			Status:  http.StatusBadRequest,
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapErrorOptions controls how much engine detail reaches the user.
type MapErrorOptions struct {
	// HideQueryErrors replaces the engine's message for QRY001 with the
	// generic text.
	HideQueryErrors bool
}

// MapError converts a technical error to a user-friendly message, passing
// query errors through verbatim.
func MapError(err error) UserMessage {
	return MapErrorWith(err, MapErrorOptions{})
}

// MapErrorWith is MapError with explicit options.
func MapErrorWith(err error, opts MapErrorOptions) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, km := range kindMessages {
		if !errors.Is(err, km.kind) {
			continue
		}
		msg := km.msg
		var e *Error
		if errors.As(err, &e) && e.Err != nil {
			switch km.kind {
			case ErrQuery:
				if !opts.HideQueryErrors {
					msg.Message = e.Err.Error()
				}
			case ErrValidation, ErrLoad:
				msg.Message = msg.Message + ": " + e.Err.Error()
			}
		}
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
