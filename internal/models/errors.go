package models

import (
	"errors"
	"fmt"
)

// Stable wire error codes
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeForbidden   = "FORBIDDEN"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"
)

// ProtocolError is a typed error carried back to the client as an error
// frame. Action failures never close the connection.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// BadRequest builds a BAD_REQUEST protocol error.
func BadRequest(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Code: CodeBadRequest, Message: fmt.Sprintf(format, v...)}
}

// Forbidden builds a FORBIDDEN protocol error.
func Forbidden(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Code: CodeForbidden, Message: fmt.Sprintf(format, v...)}
}

// NotFound builds a NOT_FOUND protocol error.
func NotFound(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Code: CodeNotFound, Message: fmt.Sprintf(format, v...)}
}

// RateLimited builds a RATE_LIMITED protocol error.
func RateLimited() *ProtocolError {
	return &ProtocolError{Code: CodeRateLimited, Message: "too many requests"}
}

// AsProtocolError extracts a ProtocolError from err, mapping unknown errors
// to BAD_REQUEST so infrastructure failures never leak internals.
func AsProtocolError(err error) *ProtocolError {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe
	}
	return BadRequest("internal error")
}
