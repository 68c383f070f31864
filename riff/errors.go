package riff

import (
	"errors"
	"fmt"
)

// ErrDeviceRead is wrapped by every DeviceReadError.
var ErrDeviceRead = errors.New("cannot read device storage")

// FormatError indicates storage that does not hold a usable log container.
type FormatError struct {
	// Offset is where the problem was found
	Offset int

	// Reason describes the problem
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid log container at 0x%08X: %s", e.Offset, e.Reason)
}

// DeviceReadError indicates that storage could not be read during a scan.
type DeviceReadError struct {
	Offset int
	Length int
	Err    error
}

func (e *DeviceReadError) Error() string {
	return fmt.Sprintf("%v: %d bytes at 0x%08X: %v", ErrDeviceRead, e.Length, e.Offset, e.Err)
}

func (e *DeviceReadError) Unwrap() []error {
	return []error{ErrDeviceRead, e.Err}
}

// IsFormatError returns true if err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
