package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports connection settings that are missing or invalid.
// It is raised before any network call is attempted.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: %s must be set", strings.Join(e.Missing, " and "))
	}
	return "configuration error: " + e.Reason
}

// PreconditionError reports a request the adapter refuses to send because it
// cannot succeed, e.g. a relation from a work package to itself.
type PreconditionError struct {
	Message string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return e.Message
}

// NewPreconditionError builds a PreconditionError from a format string.
func NewPreconditionError(format string, args ...any) *PreconditionError {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// APIError is a non-success response from OpenProject. The status and the
// service's own message are preserved so callers can tell categories apart.
type APIError struct {
	StatusCode int
	Identifier string // errorIdentifier, e.g. urn:openproject-org:api:v3:errors:NotFound
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("OpenProject API error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("OpenProject API error (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("OpenProject API error (status %d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NewAPIError builds an APIError from a response status and raw body. The
// body is parsed as an OpenProject error resource when possible.
func NewAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}

	var payload struct {
		ErrorIdentifier string `json:"errorIdentifier"`
		Message         string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Identifier = payload.ErrorIdentifier
		apiErr.Message = payload.Message
	}

	return apiErr
}

// ResponseShapeError reports a success response that lacks a field the
// adapter cannot do without, such as a resource id.
type ResponseShapeError struct {
	Resource string
	Field    string
}

// Error implements the error interface.
func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("malformed %s response: missing required field %q", e.Resource, e.Field)
}

// TransportError wraps a failure to reach OpenProject at all.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach OpenProject (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
