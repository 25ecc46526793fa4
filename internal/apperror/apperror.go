// Package apperror defines the error taxonomy shared by the dashboard client
// and the development backend.
//
// ERROR CATEGORIES:
// The client only ever sees three kinds of failure:
//
//	transport   → the request never produced a JSON envelope (ErrTransport)
//	rejected    → the backend answered {success:false, message} (ErrRejected,
//	              or ErrUnauthorized / ErrForbidden when the status says so)
//	denied      → the authorization guard refused a view (ErrForbidden)
//
// Callers inspect them with errors.Is and surface a notification; nothing is
// retried and nothing is fatal.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTransport      = errors.New("transport failure")
	ErrRejected       = errors.New("rejected by backend")
	ErrInvalidPayload = errors.New("invalid payload")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status observed or to be sent
	Cause   error  // Optional: underlying error (network, decode)
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when no valid credentials accompany a request.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Transport wraps a network failure or an unreadable (non-JSON) response body.
func Transport(cause error) *AppError {
	return &AppError{
		Err:     ErrTransport,
		Message: fmt.Sprintf("request failed: %v", cause),
		Cause:   cause,
	}
}

// Rejected wraps a backend-reported logical failure ({success:false}).
// 401 and 403 are folded into ErrUnauthorized and ErrForbidden so callers can
// tell an expired session from an ordinary refusal.
func Rejected(status int, message string) *AppError {
	if message == "" {
		message = "request was rejected"
	}
	sentinel := ErrRejected
	switch status {
	case 401:
		sentinel = ErrUnauthorized
	case 403:
		sentinel = ErrForbidden
	case 404:
		sentinel = ErrNotFound
	}
	return &AppError{
		Err:     sentinel,
		Message: message,
		Status:  status,
	}
}

// InvalidPayload reports a success envelope whose data failed schema checks.
func InvalidPayload(cause error) *AppError {
	return &AppError{
		Err:     ErrInvalidPayload,
		Message: fmt.Sprintf("unexpected response payload: %v", cause),
		Cause:   cause,
	}
}

// Message extracts the human-readable message of an AppError anywhere in the
// chain, falling back to fallback for foreign errors.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
