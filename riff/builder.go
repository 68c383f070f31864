package riff

import (
	"encoding/binary"
	"time"
)

// LogHeader describes the log header chunk that opens a session.
type LogHeader struct {
	// Tag is "logh", "log1" or "log2" (default: "logh")
	Tag string

	// Start is the session start; its wall-clock fields are stored as-is
	Start time.Time

	// Period is the sample period in milliseconds; 0 is stored as 0
	Period int

	// Channels is the number of 16-bit channels per sample stride
	Channels int

	// Pad is the number of padding bytes leading the log data chunk
	Pad int
}

// Builder builds a storage image holding a RIFF container of log chunks.
//
//	b := riff.NewBuilder()
//	b.Header("0003")
//	b.Session(riff.LogHeader{Start: t0, Period: 1008, Channels: 64}, samples)
//	dev := simulator.NewDevice("COM3", b.Bytes())
type Builder struct {
	buf  []byte
	size int
}

// NewBuilder returns a builder holding only the 12-byte container header.
func NewBuilder() *Builder {
	b := &Builder{size: -1}
	b.buf = append(b.buf, "RIFF"...)
	b.buf = append(b.buf, 0, 0, 0, 0)
	b.buf = append(b.buf, "ZLOG"...)
	return b
}

// Offset returns the current end of the image.
func (b *Builder) Offset() int {
	return len(b.buf)
}

// Chunk appends a chunk and returns the offset of its payload.
func (b *Builder) Chunk(tag string, payload []byte) int {
	var hdr [8]byte
	copy(hdr[:4], tag)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))
	b.buf = append(b.buf, hdr[:]...)
	off := len(b.buf)
	b.buf = append(b.buf, payload...)
	return off
}

// Header appends a zphr chunk carrying the format version code.
func (b *Builder) Header(version string) int {
	payload := make([]byte, 8)
	copy(payload[:4], "BH3 ")
	copy(payload[4:], version)
	return b.Chunk("zphr", payload)
}

// Junk appends a JUNK chunk of n zero bytes.
func (b *Builder) Junk(n int) int {
	return b.Chunk("JUNK", make([]byte, n))
}

// FMS appends an "fms " chunk of n zero bytes.
func (b *Builder) FMS(n int) int {
	return b.Chunk("fms ", make([]byte, n))
}

// LogHeader appends a log header chunk.
func (b *Builder) LogHeader(h LogHeader) int {
	return b.Chunk(h.tag(), EncodeLogHeader(h))
}

// LogData appends a logr chunk of pad zero bytes followed by data and
// returns the offset of data.
func (b *Builder) LogData(data []byte, pad int) int {
	payload := make([]byte, pad, pad+len(data))
	payload = append(payload, data...)
	return b.Chunk("logr", payload) + pad
}

// Session appends a log header and its log data and returns the offset of data.
func (b *Builder) Session(h LogHeader, data []byte) int {
	b.LogHeader(h)
	return b.LogData(data, h.Pad)
}

// Raw appends bytes that are not a chunk.
func (b *Builder) Raw(p []byte) {
	b.buf = append(b.buf, p...)
}

// PadTo fills with 0xFF up to offset.
func (b *Builder) PadTo(offset int) {
	for len(b.buf) < offset {
		b.buf = append(b.buf, 0xFF)
	}
}

// AlignTo fills with 0xFF up to the next multiple of n.
func (b *Builder) AlignTo(n int) {
	if rem := len(b.buf) % n; rem != 0 {
		b.PadTo(len(b.buf) + n - rem)
	}
}

// SetSize overrides the container length written in the header. By
// default it is the length of the image.
func (b *Builder) SetSize(t int) {
	b.size = t
}

// Bytes returns the finished image.
func (b *Builder) Bytes() []byte {
	out := append([]byte(nil), b.buf...)
	size := b.size
	if size < 0 {
		size = len(out)
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(size))
	return out
}

func (h LogHeader) tag() string {
	if h.Tag == "" {
		return "logh"
	}
	return h.Tag
}

// EncodeLogHeader returns the log header payload for h.
//
//	[YEAR(2)][MONTH][DAY][MS_OF_DAY(4)][PERIOD(2)][RSVD(2)][CHANNELS(2)][PAD(2)]
func EncodeLogHeader(h LogHeader) []byte {
	p := make([]byte, LogHeaderSize)
	binary.LittleEndian.PutUint16(p[0:2], uint16(h.Start.Year()))
	p[2] = byte(h.Start.Month())
	p[3] = byte(h.Start.Day())
	ms := h.Start.Hour()*3600000 + h.Start.Minute()*60000 + h.Start.Second()*1000 + h.Start.Nanosecond()/int(time.Millisecond)
	binary.LittleEndian.PutUint32(p[4:8], uint32(ms))
	binary.LittleEndian.PutUint16(p[8:10], uint16(h.Period))
	binary.LittleEndian.PutUint16(p[12:14], uint16(h.Channels))
	binary.LittleEndian.PutUint16(p[14:16], uint16(h.Pad))
	return p
}
