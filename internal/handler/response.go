package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same envelope, success or failure:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "message": "Email already in use"}
//
// The dashboard client parses the envelope before it looks at the status
// code, so the status is informational and the message is what users see.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/auth"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeJSON sends v with the given status. Headers and status MUST be set
// before the body is written; afterwards changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// statusFor maps an error category to an HTTP status. The service layer
// never sees status codes; this is the only place they are chosen.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError sends the failure envelope. Only AppError messages reach the
// client: a raw error might contain SQL or file paths, so anything else
// becomes a generic 500 and is logged in full.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		logger.Error("request failed", slog.String("error", err.Error()))
	}

	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// queryLimit parses ?limit=; absent means 0 (service default).
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("limit", "limit must be a non-negative integer")
	}
	return n, nil
}

// actorID is the JWT subject stored by auth.RequireAuth.
func actorID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
