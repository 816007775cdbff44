// Package apperr defines the domain errors returned by the API services.
//
// Services return *Error values; the response package turns them into
// status codes and bodies. Anything that is not an *Error is treated as an
// unexpected failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error kind.
type Code string

const (
	CodeValidation          Code = "validation"
	CodeConflict            Code = "conflict"
	CodeCredentialsRequired Code = "credentials_required"
	CodeForbidden           Code = "forbidden"
	CodeNotFound            Code = "not_found"
)

// HTTPStatus returns the status code a response for this kind should carry.
// Conflicts are reported as 400 to match the API's published contract.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeConflict:
		return http.StatusBadRequest
	case CodeCredentialsRequired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code and a caller-facing message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinels for errors.Is.
var (
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict            = &Error{Code: CodeConflict, Message: "conflict"}
	ErrCredentialsRequired = &Error{Code: CodeCredentialsRequired, Message: "credentials required"}
	ErrForbidden           = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
)

// NoTokenMessage is reported for every request without a usable bearer token.
const NoTokenMessage = "No authorization token was found"

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// CredentialsRequired is returned when a request carries no token or one
// that does not identify a user. The two cases are indistinguishable.
func CredentialsRequired() *Error {
	return &Error{Code: CodeCredentialsRequired, Message: NoTokenMessage}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}
