// Package domain defines the core domain models for sdncli.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a client-side domain error with a structured error code.
// Errors that originate from an HTTP exchange also carry the status and the
// raw response body so the operator can retry the call by hand.
type DomainError struct {
	Code    string // Error code (e.g., "SDN-RES-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Status  int    // HTTP status, 0 when not HTTP related
	Body    string // Raw HTTP response body, verbatim
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Body != "" {
		b.WriteString("\n")
		b.WriteString(e.Body)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

func (e *DomainError) clone() *DomainError {
	c := *e
	return &c
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := e.clone()
	c.Details = details
	return c
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithResponse returns a copy of the error carrying an HTTP status and body.
func (e *DomainError) WithResponse(status int, body string) *DomainError {
	c := e.clone()
	c.Status = status
	c.Body = body
	return c
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HTTPStatus extracts the HTTP status carried by a DomainError, or 0.
func HTTPStatus(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthFailed indicates the identity service did not issue a token.
	ErrAuthFailed = NewDomainError("SDN-AUTH-4010", "authentication failed")
)

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrRequestFailed indicates the controller answered with a non-2xx status.
	ErrRequestFailed = NewDomainError("SDN-REQ-5020", "request failed")

	// ErrMalformedResponse indicates a 2xx response whose payload cannot be used.
	ErrMalformedResponse = NewDomainError("SDN-REQ-5021", "malformed response")
)

// ============================================================================
// Resource Errors (RES)
// ============================================================================

var (
	// ErrResourceNotFound indicates no resource matched the requested name.
	ErrResourceNotFound = NewDomainError("SDN-RES-4040", "resource not found")

	// ErrAmbiguousName indicates several resources share the name and no
	// interactive choice is possible.
	ErrAmbiguousName = NewDomainError("SDN-RES-4090", "multiple resources match name")
)

// ============================================================================
// Selection Errors (SEL)
// ============================================================================

var (
	// ErrSelectionOutOfRange indicates the chosen index is not a listed candidate.
	ErrSelectionOutOfRange = NewDomainError("SDN-SEL-4000", "selection out of range")

	// ErrSelectionParse indicates the operator's answer is not an index.
	ErrSelectionParse = NewDomainError("SDN-SEL-4001", "invalid selection")
)

// ============================================================================
// Configuration & Argument Errors (CONF, ARG)
// ============================================================================

var (
	// ErrConfig indicates an invalid or incomplete configuration.
	ErrConfig = NewDomainError("SDN-CONF-4000", "configuration error")

	// ErrInvalidArgument indicates an unusable command-line argument.
	ErrInvalidArgument = NewDomainError("SDN-ARG-4000", "invalid argument")
)

// NewAuthError builds an authentication error for a failed token exchange.
func NewAuthError(status int, body string) *DomainError {
	return ErrAuthFailed.WithResponse(status, body)
}

// NewRequestError builds a request error for a non-2xx controller response.
func NewRequestError(method, uri string, status int, body string) *DomainError {
	return ErrRequestFailed.WithDetailsf("%s %s", method, uri).WithResponse(status, body)
}

// NewNotFoundError reports that no resource named name exists under resource.
func NewNotFoundError(resource, name string) *DomainError {
	return ErrResourceNotFound.WithDetailsf("%s %s", resource, name)
}

// NewSelectionOutOfRangeError reports an index outside 0..count-1.
func NewSelectionOutOfRangeError(index, count int) *DomainError {
	return ErrSelectionOutOfRange.WithDetailsf("your select %d is not in range 0-%d", index, count-1)
}

// NewConfigError reports a configuration problem.
func NewConfigError(format string, args ...any) *DomainError {
	return ErrConfig.WithDetailsf(format, args...)
}
