package errors

import (
	"net/http"

	"profilemap/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails returns a copy carrying details. The copy is not == to e, so
// match it with Is, which compares error codes.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Is matches any BaseError carrying the same error code.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// Predefined error types
var (
	// Profile-related errors
	ErrProfileNotFound = NewBaseError(
		http.StatusNotFound,
		"PROFILE_NOT_FOUND",
		"Profile not found",
		"",
	)

	ErrProfileFetchFailed = NewBaseError(
		http.StatusNotFound,
		"PROFILE_FETCH_FAILED",
		"Profile not found",
		"",
	)

	ErrProfileConflict = NewBaseError(
		http.StatusConflict,
		"PROFILE_CONFLICT",
		"A profile with this id already exists",
		"",
	)

	ErrConfirmationRequired = NewBaseError(
		http.StatusBadRequest,
		"CONFIRMATION_REQUIRED",
		"Deleting a profile must be confirmed",
		"",
	)

	// Form-related errors
	ErrFormNotFound = NewBaseError(
		http.StatusNotFound,
		"FORM_NOT_FOUND",
		"Form is closed or does not exist",
		"",
	)

	ErrFormSubmitting = NewBaseError(
		http.StatusConflict,
		"FORM_SUBMIT_IN_PROGRESS",
		"Form is already being submitted",
		"",
	)

	ErrInvalidPhoto = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PHOTO",
		"Selected file is not an image",
		"",
	)

	ErrPhotoTooLarge = NewBaseError(
		http.StatusRequestEntityTooLarge,
		"PHOTO_TOO_LARGE",
		"Selected image is too large",
		"",
	)

	// Map-related errors
	ErrMapProviderUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"MAP_PROVIDER_UNAVAILABLE",
		"Error loading map",
		"",
	)

	ErrMapSessionNotFound = NewBaseError(
		http.StatusNotFound,
		"MAP_SESSION_NOT_FOUND",
		"Map session not found",
		"",
	)

	ErrMarkerNotFound = NewBaseError(
		http.StatusNotFound,
		"MARKER_NOT_FOUND",
		"Marker not found",
		"",
	)

	// Detail-related errors
	ErrRequestSuperseded = NewBaseError(
		http.StatusConflict,
		"REQUEST_SUPERSEDED",
		"A newer request replaced this one",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Invalid input",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)
)

// ValidationError reports the first profile field that failed validation.
type ValidationError struct {
	field   string
	message string
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		field:   field,
		message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.message
}

// Field returns the name of the offending field
func (e *ValidationError) Field() string {
	return e.field
}

// HTTPCode returns the HTTP status code
func (e *ValidationError) HTTPCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the business error code
func (e *ValidationError) ErrorCode() string {
	return ErrValidationFailed.ErrorCode()
}

// Message returns the user-friendly error message
func (e *ValidationError) Message() string {
	return e.message
}

// Details returns the offending field
func (e *ValidationError) Details() string {
	return e.field
}

// Is lets errors.Is(err, ErrValidationFailed) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
