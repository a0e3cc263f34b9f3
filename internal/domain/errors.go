package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing type or stream.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a conflicting definition under an existing id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict signals an operation blocked by a dependent resource.
	ErrConflict = errors.New("conflict")
	// ErrInvalidSchema signals an invalid type or stream definition.
	ErrInvalidSchema = errors.New("invalid schema")
)

// APIError is a non-success response from the store.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// NotFound reports whether the store answered 404.
func (e *APIError) NotFound() bool { return e.StatusCode == 404 }

// TransportError is a connection-level failure: refused, reset, timed out.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a malformed or unexpectedly shaped response payload.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return e.Op + ": decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError is raised when a numeric field cannot be extracted from a summary payload.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse field %q: %s", e.Field, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Kind names the error class for logging: api, transport, decode, parse or other.
func Kind(err error) string {
	var (
		apiErr       *APIError
		transportErr *TransportError
		decodeErr    *DecodeError
		parseErr     *ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "other"
	}
}
