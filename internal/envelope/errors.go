package envelope

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in the "code" field.
const (
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeForbiddenRole           = "FORBIDDEN_ROLE"
	CodeForbiddenFinance        = "FORBIDDEN_FINANCE"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeRouteNotFound           = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeSessionStoreUnavailable = "SESSION_STORE_UNAVAILABLE"
	CodeNotReady                = "NOT_READY"
	CodeInternal                = "INTERNAL_ERROR"
)

// Error is an API error with an HTTP status, a machine-readable code and a
// message safe to show to the caller. Err, when set, is logged but never
// rendered.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap attaches an internal cause to a copy of e.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// NotFound builds the 404 used for missing and foreign resources alike, e.g.
// NotFound("JOB", "job not found") yields code JOB_NOT_FOUND.
func NotFound(resource, message string) *Error {
	return NewError(http.StatusNotFound, resource+"_NOT_FOUND", message)
}

// Common errors.
var (
	ErrInvalidCredentials = NewError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
	ErrUnauthenticated    = NewError(http.StatusUnauthorized, CodeUnauthenticated, "authentication required")
	ErrRouteNotFound      = NewError(http.StatusNotFound, CodeRouteNotFound, "route not found")
	ErrMethodNotAllowed   = NewError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	ErrSessionStore       = NewError(http.StatusServiceUnavailable, CodeSessionStoreUnavailable, "session store unavailable, try again shortly")
	ErrInternal           = NewError(http.StatusInternalServerError, CodeInternal, "internal server error")
)

// InvalidRequest builds a 400 with a caller-facing description.
func InvalidRequest(message string) *Error {
	return NewError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// AsError converts any error into an *Error. Unknown errors become
// INTERNAL_ERROR with the original attached for logging.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal.Wrap(err)
}
