package sds

import "github.com/kailas-cloud/edsanalytics/internal/domain"

// Error types re-exported from the domain layer.
// Use errors.As() to match them.
type (
	APIError       = domain.APIError
	TransportError = domain.TransportError
	DecodeError    = domain.DecodeError
	ParseError     = domain.ParseError
)
