package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ENVELOPE:
// Every response from the API carries "success" and, usually, "message":
//
//	{"success": true,  "message": "Content created successfully", "contentId": "..."}
//	{"success": false, "error": "not_found", "message": "User not found"}
//
// Payload fields sit next to them at the top level, so each handler defines
// a small response struct instead of nesting data under a "data" key.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/repository"
)

// maxBodyBytes caps request bodies. Every body this API accepts is a handful
// of short strings.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error format returned by all API endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of responses that carry nothing but a message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code go out BEFORE the body. Once Encode writes, any
// header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: true, Message: message})
}

// writeError maps a domain error to an HTTP status code and sends it.
//
// ERROR MAPPING:
// The service layer returns apperror sentinels; this is the only place they
// become status codes. errors.Is walks the wrap chain, so
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
//
// Anything that isn't an *apperror.AppError is a store or programming failure.
// The client gets a generic 500; the real error is logged with the request id
// so the two can be matched up.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := classify(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
			})
			return
		}
	}

	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	// NEVER expose internal error details: they can contain queries or paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidOperation):
		return http.StatusBadRequest, "invalid_operation"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decodeJSON reads a JSON request body into dst.
//
// http.MaxBytesReader stops reading after maxBodyBytes, so a client can't
// make the server buffer an arbitrarily large body. Unknown fields are
// ignored; a body that isn't JSON at all is a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// listOptions reads optional ?limit= and ?offset= query parameters.
// Absent means "no limit" / "from the start".
func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed("limit", "limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}

// searchParam reports whether the request asked for a search (?q= present,
// even if empty) and returns the query.
func searchParam(r *http.Request) (string, bool) {
	q := r.URL.Query()
	if !q.Has("q") {
		return "", false
	}
	return q.Get("q"), true
}

// requireLogin returns the caller's identity, or writes a 401 with message and
// returns nil. Handlers that decode a body call it first: an anonymous caller
// gets 401 even when the body is empty or malformed.
func requireLogin(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string) *auth.Identity {
	actor := auth.IdentityFromContext(r.Context())
	if actor == nil {
		writeError(w, r, logger, apperror.Unauthorized(message))
	}
	return actor
}
