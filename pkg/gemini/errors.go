package gemini

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrEmptyRequest is returned when a request has neither prompt nor audio.
	ErrEmptyRequest = errors.New("gemini: prompt or audio data required")

	// ErrUpstream matches every *UpstreamError via errors.Is.
	ErrUpstream = errors.New("gemini: upstream failure")
)

// UpstreamError reports a failed call to the generative API.
type UpstreamError struct {
	// StatusCode is the upstream HTTP status, 0 if no response was received.
	StatusCode int

	// Message is a human readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini: upstream error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini: upstream error: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstreamErr(status int, err error) *UpstreamError {
	return &UpstreamError{StatusCode: status, Message: err.Error(), Err: err}
}
