package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotConfirmed is returned when the account exists but the email
	// address has not been confirmed yet.
	ErrEmailNotConfirmed = errors.New("email address not confirmed")
	// ErrAlreadyRegistered is returned when registering an email that already
	// has an account.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrValidation is returned for local pre-provider field checks.
	ErrValidation = errors.New("validation failed")
	// ErrNoSession is returned when an operation requires an active session.
	ErrNoSession = errors.New("no active session")
)

// ProviderError is an opaque passthrough for provider failures that do not
// normalize to one of the sentinel errors above. The message is surfaced
// verbatim.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// NewProviderError creates a ProviderError.
func NewProviderError(statusCode int, message string) *ProviderError {
	return &ProviderError{StatusCode: statusCode, Message: message}
}

// ValidationError wraps ErrValidation with a field-level message so callers
// can show it inline next to the submit action.
func ValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var provErr *ProviderError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailNotConfirmed):
		return NewHTTPError(http.StatusForbidden, err.Error(), "EMAIL_NOT_CONFIRMED")
	case errors.Is(err, ErrAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_REGISTERED")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrNoSession):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "NO_SESSION")
	case errors.As(err, &provErr):
		return NewHTTPError(http.StatusBadGateway, provErr.Message, "PROVIDER_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
