package protocol

import (
	"errors"
	"fmt"
)

// ErrNAK is returned when the device explicitly refuses a request.
// A NAK is not retried within the frame.
var ErrNAK = errors.New("device refused request (NAK)")

// ValidationError describes the first field of a response frame that did
// not hold its expected value. Validation errors indicate line corruption
// and are normally retried.
type ValidationError struct {
	// Field is the frame field that failed
	Field Field

	// Got is the value found in the frame
	Got interface{}

	// Want is the expected value
	Want interface{}
}

func (e *ValidationError) Error() string {
	switch e.Field {
	case FieldLength:
		return fmt.Sprintf("invalid %s: got %v bytes, expected %v", e.Field, e.Got, e.Want)
	case FieldCount:
		return fmt.Sprintf("invalid %s: got %v, expected %v", e.Field, e.Got, e.Want)
	}
	return fmt.Sprintf("invalid %s: got 0x%02X, expected 0x%02X", e.Field, e.Got, e.Want)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNAK returns true if err is or wraps ErrNAK.
func IsNAK(err error) bool {
	return errors.Is(err, ErrNAK)
}
