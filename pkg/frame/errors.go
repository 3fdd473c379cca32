package frame

import "errors"

// Sentinel errors for store operations.
var (
	// ErrInvalidInput is returned by Accept when the payload is empty.
	ErrInvalidInput = errors.New("frame: no image data")

	// ErrAbsent is returned by ReadLatest before any frame was accepted.
	// It is the expected steady state at startup, not a failure.
	ErrAbsent = errors.New("frame: no image available")

	// ErrDecode is returned when the stored payload is not valid base64
	// image data. The underlying decoder error is wrapped alongside it.
	ErrDecode = errors.New("frame: stored payload could not be decoded")
)
