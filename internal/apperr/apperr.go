// Package apperr defines the error type shared by stores, services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodePersistence     = "PERSISTENCE_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeQuotaExceeded   = "QUOTA_EXCEEDED"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeForbidden       = "FORBIDDEN"
)

// Error carries an HTTP status and a stable code next to the underlying cause
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("app error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Invalid(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, CodeForbidden, fmt.Errorf(format, args...))
}

func QuotaExceeded(format string, args ...any) *Error {
	return New(http.StatusTooManyRequests, CodeQuotaExceeded, fmt.Errorf(format, args...))
}

// Persistence wraps a backing store failure. op names the failed operation.
func Persistence(op string, err error) *Error {
	return New(http.StatusInternalServerError, CodePersistence, fmt.Errorf("%s: %w", op, err))
}

// External wraps an AI service failure or an unusable AI response
func External(op string, err error) *Error {
	return New(http.StatusBadGateway, CodeExternalService, fmt.Errorf("%s: %w", op, err))
}

// CodeOf returns the code of the first *Error in err's chain, or "" when there is none
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StatusOf returns the HTTP status for err, defaulting to 500
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool      { return CodeOf(err) == CodeNotFound }
func IsPersistence(err error) bool   { return CodeOf(err) == CodePersistence }
func IsExternal(err error) bool      { return CodeOf(err) == CodeExternalService }
func IsQuotaExceeded(err error) bool { return CodeOf(err) == CodeQuotaExceeded }
func IsInvalid(err error) bool       { return CodeOf(err) == CodeInvalidArgument }
