package downloader

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-bioharness/protocol"
)

// ErrInvalidSession is returned when a session's byte range cannot be read.
var ErrInvalidSession = errors.New("invalid session range")

// ReadError indicates that a logical read failed: the transport failed,
// the device refused a frame, or a frame stayed corrupt after all retries.
// The data read so far must not be trusted.
type ReadError struct {
	// Offset and Length describe the logical read
	Offset int
	Length int

	// FrameOffset is the storage offset of the frame that failed
	FrameOffset int

	// Err is the underlying error
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %d bytes at 0x%08X failed at frame 0x%08X: %v",
		e.Length, e.Offset, e.FrameOffset, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// FrameError indicates that a frame was still corrupt after every
// bad-data retry. Err is the validation error of the last attempt.
type FrameError struct {
	Offset   int
	Count    int
	Attempts int
	Err      error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame at 0x%08X (%d bytes) corrupt after %d attempts: %v",
		e.Offset, e.Count, e.Attempts, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsReadError returns true if err is or wraps a ReadError.
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// IsFrameError returns true if err is or wraps a FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// isRefused reports whether the device explicitly refused the read.
func isRefused(err error) bool {
	return errors.Is(err, protocol.ErrNAK)
}
