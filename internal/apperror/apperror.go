package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrAuth         = errors.New("authentication failed")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // Human-readable error message, safe to return to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Auth returns an AppError for failed credential checks and missing
// authentication. HTTP handlers map this to 401 Unauthorized.
func Auth(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// TokenInvalid marks a token that failed signature or shape checks.
// Kept distinct from TokenExpired so the auth gate can tell the client
// whether logging in again will help or the token was simply stale.
func TokenInvalid(message string) *AppError {
	return &AppError{
		Err:     ErrTokenInvalid,
		Message: message,
	}
}

// TokenExpired marks a token whose expiry window has elapsed.
func TokenExpired(message string) *AppError {
	return &AppError{
		Err:     ErrTokenExpired,
		Message: message,
	}
}
