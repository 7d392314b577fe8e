package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the pipeline or the query path wraps
// exactly one of these, so callers classify with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrProvisioning      = errors.New("provisioning error")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrLoad              = errors.New("load error")
	ErrQuery             = errors.New("query error")
	ErrNotFound          = errors.New("dataset not found")
)

// ErrPortConflict is wrapped in a provisioning error when the derived port is
// already reserved by another dataset.
var ErrPortConflict = errors.New("port already reserved")

// Error is a classified pipeline error.
type Error struct {
	Kind error  // One of the Err* kinds above
	Op   string // Stage that failed, e.g. "provision"
	Err  error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return e.Kind.Error()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ValidationError wraps err as a validation failure.
func ValidationError(op string, err error) *Error { return newError(ErrValidation, op, err) }

// ProvisioningError wraps err as a launch failure.
func ProvisioningError(op string, err error) *Error { return newError(ErrProvisioning, op, err) }

// ConnectionTimeoutError wraps the last connection error after the retry budget is spent.
func ConnectionTimeoutError(op string, err error) *Error {
	return newError(ErrConnectionTimeout, op, err)
}

// LoadError wraps a parse or insert failure.
func LoadError(op string, err error) *Error { return newError(ErrLoad, op, err) }

// QueryError wraps the engine's own error for a caller statement.
func QueryError(op string, err error) *Error { return newError(ErrQuery, op, err) }

// NotFoundError reports an unknown dataset identifier.
func NotFoundError(id string) *Error {
	return newError(ErrNotFound, "lookup", fmt.Errorf("no dataset with id %q", id))
}

// KindOf returns the error kind of err, or nil if err is not classified.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// classify wraps err with kind unless it already carries a kind.
// Backends may return a classified error of their own (e.g. a port conflict
// inside a provisioning error); those pass through unchanged.
func classify(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return newError(kind, op, err)
}
