// Package kgerr defines the error kinds surfaced by the knowledge-graph core
// and their HTTP status mapping.
package kgerr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindNotSupported Kind = "not_supported"
	KindTimeout      Kind = "timeout"
	KindUnavailable  Kind = "backend_unavailable"
	KindExecution    Kind = "execution_error"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "knowledge graph error"
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s (op=%s kind=%s): %v", e.Message, e.Op, e.Kind, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s (op=%s kind=%s)", e.Message, e.Op, e.Kind)
	case e.Cause != nil:
		return fmt.Sprintf("operation failed (op=%s kind=%s): %v", e.Op, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("operation failed (op=%s kind=%s)", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// KindOf returns the kind of err, unwrapping as needed.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var kg *Error
	if errors.As(err, &kg) {
		return kg.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the API status code contract:
// 400 validation, 404 not found, 409 conflict, 501 not supported,
// 503 backend unavailable, 504 timeout, 500 otherwise.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindNotSupported:
		return http.StatusNotImplemented
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
