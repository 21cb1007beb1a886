// Package apperr carries the stable error codes surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeOutOfStock         Code = "OUT_OF_STOCK"
	CodeProductUnavailable Code = "PRODUCT_UNAVAILABLE"
	CodeExternalService    Code = "EXTERNAL_SERVICE_ERROR"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidSignature   Code = "INVALID_SIGNATURE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is a coded error. Message is safe to show to callers; Err keeps the
// underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string, err error) *Error {
	return Wrap(CodeNotFound, what+" not found", err)
}

func Conflict(msg string, err error) *Error {
	return Wrap(CodeConflict, msg, err)
}

// External hides the provider detail behind a generic retryable message.
func External(err error) *Error {
	return Wrap(CodeExternalService, "payment provider unavailable, please retry", err)
}

func Internal(err error) *Error {
	return Wrap(CodeInternal, "internal error", err)
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
