package riff

import (
	"fmt"
	"time"
)

// Session is one recorded logging interval found in the container.
type Session struct {
	// Tag is the log header chunk that opened the session ("logh", "log1" or "log2")
	Tag string

	// Timestamp is the session start
	Timestamp time.Time

	// Period is the time between sample records in milliseconds
	Period int

	// Channels is the number of 16-bit channels in a sample record
	Channels int

	// PadBytes is the number of padding bytes leading the log data chunk
	PadBytes int

	// Offset is the absolute storage offset of the first sample byte
	Offset int

	// Length is the number of sample bytes, excluding padding
	Length int

	// Duration is the time covered by the samples: one second for a single
	// record, zero for a log data chunk holding no whole record
	Duration time.Duration
}

// Stride returns the size of one sample record in bytes.
func (s Session) Stride() int {
	return s.Channels * 2
}

// Records returns the number of whole sample records in the session.
func (s Session) Records() int {
	if s.Channels <= 0 {
		return 0
	}
	return s.Length / s.Stride()
}

// End returns the storage offset just past the session data.
func (s Session) End() int {
	return s.Offset + s.Length
}

// PeriodDuration returns Period as a time.Duration.
func (s Session) PeriodDuration() time.Duration {
	return time.Duration(s.Period) * time.Millisecond
}

func (s Session) String() string {
	return fmt.Sprintf("%s %s period=%dms channels=%d offset=0x%08X length=%d",
		s.Timestamp.Format("2006-01-02 15:04:05"), FormatDuration(s.Duration),
		s.Period, s.Channels, s.Offset, s.Length)
}

// Directory is the result of one scan of device storage.
type Directory struct {
	// FormatVersion is the 4-character sample layout code from the zphr chunk
	FormatVersion string

	// Sessions lists sessions in storage order
	Sessions []Session
}

// FormatDuration renders d the way session lists show it: minutes and
// seconds under an hour, hours and minutes under a day, otherwise days and
// hours.
//
//	FormatDuration(90 * time.Second)   // "01m30s"
//	FormatDuration(150 * time.Minute)  // "02h30m"
//	FormatDuration(50 * time.Hour)     // "2d02h"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%02dm%02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
	case d < 24*time.Hour:
		return fmt.Sprintf("%02dh%02dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	default:
		return fmt.Sprintf("%dd%02dh", int(d/(24*time.Hour)), int(d%(24*time.Hour)/time.Hour))
	}
}
