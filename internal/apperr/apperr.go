package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error is a domain error carrying a stable machine-readable code and the
// HTTP status it maps to. Services return these; the HTTP layer only
// translates, it never invents statuses.
type Error struct {
	Code    string
	Status  int
	Message string
	Detail  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.cause = err
	return &cp
}

// From extracts an *Error from an error chain.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Validation(msg string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: msg}
}

func ValidationFields(msg string, fields map[string]any) *Error {
	return &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: msg, Detail: fields}
}

func Authentication(msg string) *Error {
	return &Error{Code: "INVALID_CREDENTIALS", Status: http.StatusUnauthorized, Message: msg}
}

func AccountLocked(until time.Time) *Error {
	return &Error{
		Code:    "ACCOUNT_LOCKED",
		Status:  http.StatusLocked,
		Message: "account temporarily locked",
		Detail:  map[string]any{"lockoutUntil": until.UTC().Format(time.RFC3339)},
	}
}

func AdminExists() *Error {
	return &Error{Code: "ADMIN_EXISTS", Status: http.StatusConflict, Message: "an admin account already exists"}
}

func InvalidLicense(reason string) *Error {
	return &Error{Code: "INVALID_LICENSE", Status: http.StatusBadRequest, Message: reason}
}

func InvalidRefreshToken() *Error {
	return &Error{Code: "INVALID_REFRESH_TOKEN", Status: http.StatusUnauthorized, Message: "refresh token is invalid"}
}

func NoToken() *Error {
	return &Error{Code: "NO_TOKEN", Status: http.StatusUnauthorized, Message: "authorization token required"}
}

func TokenExpired() *Error {
	return &Error{Code: "TOKEN_EXPIRED", Status: http.StatusUnauthorized, Message: "access token expired"}
}

func TokenInvalid() *Error {
	return &Error{Code: "TOKEN_INVALID", Status: http.StatusUnauthorized, Message: "access token invalid"}
}

func Forbidden() *Error {
	return &Error{Code: "FORBIDDEN", Status: http.StatusForbidden, Message: "insufficient permissions"}
}

func NotFound(what string) *Error {
	return &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: what + " not found"}
}

func Internal(err error) *Error {
	return &Error{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Message: "internal server error", cause: err}
}
