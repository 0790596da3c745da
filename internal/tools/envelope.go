package tools

import (
	"github.com/clinicvoice/juvonno-mcp/internal/juvonno"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stable error kind tags. Callers branch on these, never on message text.
const (
	ErrValidationFailure    = "validation_failure"
	ErrAuthenticationFailed = "authentication_failed"
	ErrUpstreamUnavailable  = "upstream_unavailable"
	ErrUpstreamRejected     = "upstream_rejected"
	ErrUpstreamMalformed    = "upstream_malformed_response"
	ErrSlotConflict         = "slot_conflict"
	ErrInternal             = "internal_error"
)

// ErrorDetail carries the failure kind, a human-readable message, and, for
// validation failures, every offending parameter.
type ErrorDetail struct {
	Kind       string      `json:"kind"`
	Message    string      `json:"message"`
	Params     []string    `json:"params,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
}

// Envelope is the uniform wrapper returned for every tool call. Callers
// only ever branch on Status.
type Envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Result  any          `json:"result,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// Success wraps a domain payload with a human-readable summary.
func Success(result any, message string) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Result: result}
}

// Failure wraps an error kind and message.
func Failure(kind, message string, params ...string) Envelope {
	return Envelope{
		Status: StatusError,
		Error:  &ErrorDetail{Kind: kind, Message: message, Params: params},
	}
}

// ValidationFailure wraps the complete violation set from one validate pass.
func ValidationFailure(violations []Violation) Envelope {
	return Envelope{
		Status: StatusError,
		Error: &ErrorDetail{
			Kind:       ErrValidationFailure,
			Message:    "invalid tool arguments",
			Params:     ViolationParams(violations),
			Violations: violations,
		},
	}
}

// FromUpstreamError maps a typed Juvonno failure onto the envelope
// taxonomy. Anything untyped is an internal error.
func FromUpstreamError(err error) Envelope {
	kind := ErrInternal
	switch juvonno.KindOf(err) {
	case juvonno.KindAuthenticationFailed:
		kind = ErrAuthenticationFailed
	case juvonno.KindUpstreamUnavailable:
		kind = ErrUpstreamUnavailable
	case juvonno.KindUpstreamRejected:
		kind = ErrUpstreamRejected
	case juvonno.KindUpstreamMalformedResponse:
		kind = ErrUpstreamMalformed
	case juvonno.KindSlotConflict:
		kind = ErrSlotConflict
	}
	return Failure(kind, err.Error())
}
