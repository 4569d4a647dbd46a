package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// EVERY response from this API has one of two envelope shapes:
//
//	success: {"status":"success", "token":"...", "data":{...}}
//	failure: {"status":"fail"|"error", "message":"..."}
//
// "fail" means the client caused the problem (4xx) and the message tells
// them what to fix. "error" means we caused it (5xx) and the message is
// deliberately vague. The frontend branches on exactly this distinction,
// so handlers never write ad-hoc JSON.
//
// ERROR NORMALIZATION:
// writeError is the single funnel every failure goes through. Typed domain
// errors (apperror.AppError) map to their status codes and keep their
// messages; anything unrecognised becomes a 500 with the detail withheld —
// a raw error string can contain SQL fragments, file paths, or other
// internals that don't belong on the wire. In development mode the detail
// is included to save a trip to the server logs.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arefin/authbox/internal/apperror"
)

// successResponse is the envelope for all 2xx responses.
// Token is set only by register/login; Data holds the user projection.
type successResponse struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// errorResponse is the envelope for all non-2xx responses.
// Detail carries the underlying error in development mode only.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
// Any header changes after that are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, the headers are already sent — we can only log it.
			// This is rare (usually means the data has an unencodable type like a channel).
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess sends the success envelope. token may be empty (e.g. /me).
func writeSuccess(w http.ResponseWriter, status int, token string, data any) {
	writeJSON(w, status, successResponse{
		Status: "success",
		Token:  token,
		Data:   data,
	})
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends the error envelope. dev controls whether the raw error detail is
// exposed in the body.
//
// errors.Is() UNWRAPPING:
// errors.Is(err, target) walks the entire error chain (via Unwrap())
// to see if `target` appears anywhere. This works because:
//
//	service returns: fmt.Errorf("creating user: %w", apperror.Conflict(...))
//	which wraps:     AppError{Err: ErrConflict, Message: "..."}
//	errors.Is walks: outer error → AppError → ErrConflict ✓ match!
func writeError(w http.ResponseWriter, err error, dev bool) {
	// Try to extract our AppError for the human-readable message
	var appErr *apperror.AppError

	// errors.As() is like errors.Is() but extracts the error value.
	// It walks the chain and fills appErr if it finds an *AppError.
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
		case errors.Is(err, apperror.ErrConflict):
			// Conflict rides on 400, not 409 — the registration form treats
			// "user exists" like any other rejected input.
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrAuth),
			errors.Is(err, apperror.ErrTokenInvalid),
			errors.Is(err, apperror.ErrTokenExpired):
			status = http.StatusUnauthorized // 401
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
		}

		writeJSON(w, status, errorResponse{
			Status:  statusWord(status),
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — normalize to a generic 500.
	// NEVER expose internal error details to the client in production!
	resp := errorResponse{
		Status:  "error",
		Message: "Something went wrong",
	}
	if dev {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// statusWord implements the envelope's status vocabulary:
// 4xx are the client's fault ("fail"), everything else is ours ("error").
func statusWord(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}
	return "error"
}
