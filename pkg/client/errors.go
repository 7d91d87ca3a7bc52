package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/charlesng35/notula/pkg/errors"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []apperrors.FieldError
}

func newAPIError(status int, env envelope) *APIError {
	apiErr := &APIError{Status: status, Message: env.Message}
	if env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Fields = env.Error.Fields
		if apiErr.Message == "" {
			apiErr.Message = env.Error.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "notula: HTTP %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	for _, field := range e.Fields {
		fmt.Fprintf(&b, "; %s: %s", field.Field, field.Message)
	}
	return b.String()
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is a 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// IsValidationFailed reports whether err carries field-level validation failures.
func IsValidationFailed(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == apperrors.ErrValidation.Code
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
