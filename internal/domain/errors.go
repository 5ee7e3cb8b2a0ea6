package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types for consistent error handling across the BFA.

// RequestError is returned by the API client for every non-2xx response.
// Message is the backend's message field when present, otherwise
// "API Error: <status>".
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// NewRequestError builds a RequestError, falling back to the generic message
// when the backend did not provide one.
func NewRequestError(status int, message string) *RequestError {
	if message == "" {
		message = fmt.Sprintf("API Error: %d", status)
	}
	return &RequestError{Status: status, Message: message}
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}

// IsNotFound reports whether err is a 404 from the backend or an ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf) || IsStatus(err, http.StatusNotFound)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates the request never completed (transport failure).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrMalformedResponse indicates a 2xx body that does not match the expected shape.
type ErrMalformedResponse struct {
	Endpoint string
	Err      error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("unexpected response from %s", e.Endpoint)
}

func (e *ErrMalformedResponse) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a client-side validation failure caught before any request.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ValidationErrors groups field failures of a whole form.
type ValidationErrors struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// ErrUnauthorized indicates there is no session token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrRedirect is returned by route guards when navigation must go elsewhere.
type ErrRedirect struct {
	To string
}

func (e *ErrRedirect) Error() string {
	return "redirect to " + e.To
}

// ErrMutationPending indicates a submit while the same mutation is still in flight.
var ErrMutationPending = errors.New("request already in progress")

// ErrSessionChanged indicates a result arrived after the session it belongs
// to was logged out or replaced. The result is dropped.
var ErrSessionChanged = errors.New("session changed while the request was in flight")
