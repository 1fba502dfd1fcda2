package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError indicates the request never produced a response
// (DNS, connection refused, timeout, cancelled context).
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError is returned for any non-2xx response. Description holds
// the server-supplied explanation when the body carried one.
type RejectedError struct {
	Method      string
	Path        string
	Status      int
	Description string
}

func (e *RejectedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s %s rejected (%d): %s", e.Method, e.Path, e.Status, e.Description)
	}
	return fmt.Sprintf("%s %s rejected (%d)", e.Method, e.Path, e.Status)
}

// MalformedError indicates a response body that could not be decoded into
// the expected shape.
type MalformedError struct {
	Method string
	Path   string
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("decoding response from %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is a 401
// rejection, meaning the bearer token is missing, expired or revoked.
func IsAuthError(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej) && rej.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej) && rej.Status == http.StatusNotFound
}

// Describe maps err to a display string, preferring the server-supplied
// description and falling back to fallback.
func Describe(err error, fallback string) string {
	var rej *RejectedError
	if errors.As(err, &rej) && rej.Description != "" {
		return rej.Description
	}
	return fallback
}
