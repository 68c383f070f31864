package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned by Read when no byte arrived in time.
	ErrTimeout = errors.New("transport: read timeout")

	// ErrClosed is returned by operations on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNotFound is returned when no USB device has the requested serial number.
	ErrNotFound = errors.New("transport: device not found")
)

// ConnectionError is returned when a transport cannot be opened.
type ConnectionError struct {
	// ID is the device identifier that was opened
	ID string

	// Kind is the transport variant selected for ID
	Kind Kind

	// Err is the underlying error
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to open %s device %q: %v", e.Kind, e.ID, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError returns true if err is or wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
