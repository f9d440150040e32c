package zever

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a caller-supplied parameter violates a
// precondition. It is always returned before any request is made.
var ErrInvalidArgument = errors.New("invalid argument")

// ConnectivityError indicates a transport-level failure: the request never
// produced a response from the cloud (DNS, timeout, connection refused).
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("zevercloud: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// APIError is a non-success response from the cloud, carrying the upstream
// status and message when one was provided.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("zevercloud: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("zevercloud: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// DecodeError indicates the response body did not match the expected JSON
// shape, usually a sign the upstream contract changed.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("zevercloud: failed to decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
