// Package apperror defines the application's domain error taxonomy.
//
// WHY A DEDICATED ERROR PACKAGE?
// Services need a way to say "this failed because the meal doesn't exist"
// without knowing anything about HTTP. Handlers need a way to turn that into
// a 404 without parsing error strings. Sentinel errors bridge the two:
//
//	service:  return apperror.NotFound("meal", id)
//	handler:  errors.Is(err, apperror.ErrNotFound) → 404
//
// Every sentinel corresponds to exactly one HTTP status class:
//
//	ErrValidation   → 400  malformed input (bad date format, goal out of range)
//	ErrUnauthorized → 401  missing/invalid/expired credentials
//	ErrForbidden    → 403  authenticated but not allowed (cross-user access)
//	ErrNotFound     → 404  absent or not owned by the caller
//	ErrConflict     → 409  uniqueness violation (duplicate email/username)
//
// Anything that doesn't wrap one of these is treated as an internal error
// and surfaces as a generic 500 — internal details never reach the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError carries a sentinel plus a human-readable message.
//
// Unwrap() returns the sentinel, so errors.Is() works through any number of
// fmt.Errorf("%w") wrappers the service layer adds on top.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable, safe to return to clients
	Field   string // optional: the input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a resource doesn't exist — or isn't owned by the
// caller. Ownership failures deliberately look identical to absence so the
// API doesn't leak which IDs exist for other users.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports malformed or out-of-range input on a named field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized reports missing or bad credentials. The message is
// intentionally generic for login failures — "incorrect email or password"
// regardless of which half was wrong, to avoid user enumeration.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden reports that the authenticated caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Conflict reports a uniqueness violation.
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s: %s", resource, message),
	}
}
