package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned before any network call when the caller has no
// usable session token.
var ErrUnauthorized = errors.New("unauthorized: missing or expired session token")

// UpstreamError carries a non-2xx response from the backend API, including
// whatever body was available.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("backend responded with status %d: %s", e.Status, e.Body)
}

// TransportError wraps a network-level failure reaching the backend.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedFormatError signals a response whose shape does not match the
// operation's contract (e.g. the upload endpoint not returning an array).
type UnexpectedFormatError struct {
	Operation string
	Detail    string
}

func (e *UnexpectedFormatError) Error() string {
	return fmt.Sprintf("unexpected response format from %s: %s", e.Operation, e.Detail)
}
