package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a failure that knows how it should be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a different client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Error kinds rendered in the "code" field of the error envelope.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeUnprocessable = "unprocessable"
	CodeInternal      = "internal"
)

// Common errors exposed to the rest of the application.
var (
	ErrBadRequest = &AppError{
		Code:       CodeBadRequest,
		Message:    "bad request",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       CodeConflict,
		Message:    "resource already exists",
		StatusCode: http.StatusConflict,
	}

	// ErrUnprocessable is kept for clients that expect the 422 envelope; no handler raises it today.
	ErrUnprocessable = &AppError{
		Code:       CodeUnprocessable,
		Message:    "unprocessable",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrInternalServer = &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an internal AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var described Described
	if errors.As(err, &described) {
		return &AppError{
			Code:       described.Kind(),
			Message:    described.Describe(),
			StatusCode: described.Status(),
			Internal:   err,
		}
	}

	return ErrInternalServer.WithInternal(err)
}

// Described is implemented by errors from other layers (the token verifier in particular)
// that choose their own status and description. FromError passes them through unchanged
// instead of collapsing them into a generic 500.
type Described interface {
	error
	Kind() string
	Describe() string
	Status() int
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}

// NewNotFound reports a missing resource with a specific message.
func NewNotFound(message string) *AppError {
	return ErrNotFound.WithMessage(message)
}
