package juvonno

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable tag describing why an upstream call failed.
type ErrorKind string

const (
	// KindAuthenticationFailed: Juvonno rejected the API key.
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	// KindUpstreamUnavailable: network failure, timeout, or cancellation.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindUpstreamRejected: Juvonno returned a non-success status.
	KindUpstreamRejected ErrorKind = "upstream_rejected"
	// KindUpstreamMalformedResponse: the response body did not parse.
	KindUpstreamMalformedResponse ErrorKind = "upstream_malformed_response"
	// KindSlotConflict: the requested slot was no longer bookable at write
	// time. Surfaced distinctly so a calling agent can re-run availability.
	KindSlotConflict ErrorKind = "slot_conflict"
)

// Error is a typed failure from the Juvonno API boundary.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("juvonno: %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("juvonno: %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the error kind, or "" for non-Juvonno errors.
func KindOf(err error) ErrorKind {
	var je *Error
	if errors.As(err, &je) {
		return je.Kind
	}
	return ""
}
