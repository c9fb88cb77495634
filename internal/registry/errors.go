package registry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when no consulted source knows the requested name.
	ErrNotFound = errors.New("registry item not found")

	// ErrUnsupportedSource is returned for source strings that match no known form.
	ErrUnsupportedSource = errors.New("unsupported registry source")
)

// HTTPError is a non-2xx response from a registry host.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsAuth reports whether the response was an authentication or authorization failure.
func (e *HTTPError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the response was a 404.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ParseError is a document that could not be decoded.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
