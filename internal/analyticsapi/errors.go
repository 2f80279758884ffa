package analyticsapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for API failures. Match with errors.Is.
var (
	// ErrTransport is returned when the request never produced a response.
	ErrTransport = errors.New("analytics api transport error")

	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("analytics api unexpected status")

	// ErrUnsuccessful is returned when the envelope reports success=false.
	ErrUnsuccessful = errors.New("analytics api reported failure")

	// ErrMalformedResponse is returned when the envelope or its domain key is
	// missing or not of the expected shape.
	ErrMalformedResponse = errors.New("analytics api malformed response")
)

// APIError describes a failed call.
type APIError struct {
	Method     string
	Path       string
	StatusCode int    // 0 when no response was received
	Message    string // upstream message or detail
	Err        error  // one of the sentinel errors, possibly wrapping a cause
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err came from the analytics API boundary.
func IsUpstream(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
