package downloader

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-bioharness/protocol"
)

// Diagnostics counts protocol events during one operation. The caller owns
// it; a nil *Diagnostics discards counts.
type Diagnostics struct {
	// Requests is the number of request frames written
	Requests int

	// BadSTX, BadMsgID, BadCount, BadCRC, BadACK and BadLength count
	// responses rejected for the named field
	BadSTX    int
	BadMsgID  int
	BadCount  int
	BadCRC    int
	BadACK    int
	BadLength int

	// NAKs is the number of responses refused by the device
	NAKs int

	// FrameRetries is the number of frames re-requested after bad data
	FrameRetries int

	// ReadRetries is the number of whole reads repeated after a failure
	ReadRetries int

	// Drains is the number of times stale input was discarded
	Drains int

	// BytesRead is the number of payload bytes accepted
	BytesRead int
}

// BadFrames returns the total number of responses rejected as corrupt.
func (d Diagnostics) BadFrames() int {
	return d.BadSTX + d.BadMsgID + d.BadCount + d.BadCRC + d.BadACK + d.BadLength
}

// Add accumulates other into d.
func (d *Diagnostics) Add(other Diagnostics) {
	if d == nil {
		return
	}
	d.Requests += other.Requests
	d.BadSTX += other.BadSTX
	d.BadMsgID += other.BadMsgID
	d.BadCount += other.BadCount
	d.BadCRC += other.BadCRC
	d.BadACK += other.BadACK
	d.BadLength += other.BadLength
	d.NAKs += other.NAKs
	d.FrameRetries += other.FrameRetries
	d.ReadRetries += other.ReadRetries
	d.Drains += other.Drains
	d.BytesRead += other.BytesRead
}

// KeysAndValues returns the counters as alternating names and values for
// structured loggers.
func (d Diagnostics) KeysAndValues() []interface{} {
	return []interface{}{
		"requests", d.Requests,
		"bad_frames", d.BadFrames(),
		"bad_crc", d.BadCRC,
		"naks", d.NAKs,
		"frame_retries", d.FrameRetries,
		"read_retries", d.ReadRetries,
		"drains", d.Drains,
		"bytes", d.BytesRead,
	}
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("requests=%d bad=%d (stx=%d msgid=%d count=%d crc=%d ack=%d len=%d) naks=%d frame_retries=%d read_retries=%d drains=%d bytes=%d",
		d.Requests, d.BadFrames(), d.BadSTX, d.BadMsgID, d.BadCount, d.BadCRC, d.BadACK, d.BadLength,
		d.NAKs, d.FrameRetries, d.ReadRetries, d.Drains, d.BytesRead)
}

func (d *Diagnostics) recordRequest() {
	if d != nil {
		d.Requests++
	}
}

func (d *Diagnostics) recordNAK() {
	if d != nil {
		d.NAKs++
	}
}

func (d *Diagnostics) recordFrameRetry() {
	if d != nil {
		d.FrameRetries++
	}
}

func (d *Diagnostics) recordReadRetry() {
	if d != nil {
		d.ReadRetries++
	}
}

func (d *Diagnostics) recordDrain() {
	if d != nil {
		d.Drains++
	}
}

func (d *Diagnostics) recordBytes(n int) {
	if d != nil {
		d.BytesRead += n
	}
}

// recordValidation counts a rejected response by the field that failed.
func (d *Diagnostics) recordValidation(err error) {
	var ve *protocol.ValidationError
	if d == nil || !errors.As(err, &ve) {
		return
	}
	switch ve.Field {
	case protocol.FieldSTX:
		d.BadSTX++
	case protocol.FieldMsgID:
		d.BadMsgID++
	case protocol.FieldCount:
		d.BadCount++
	case protocol.FieldCRC:
		d.BadCRC++
	case protocol.FieldACK:
		d.BadACK++
	case protocol.FieldLength:
		d.BadLength++
	}
}
