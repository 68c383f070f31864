package riff

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Constants for the log container layout.
const (
	// ContainerHeaderSize is the size of the root header: tag(4) + length(4) + form(4)
	ContainerHeaderSize = 12

	// ChunkHeaderSize is the size of a chunk header: tag(4) + length(4)
	ChunkHeaderSize = 8

	// BlockSize is the storage block size used to resynchronize after a bad chunk
	BlockSize = 2048

	// DefaultPeriod replaces a zero sample period, in milliseconds
	DefaultPeriod = 1008

	// LogHeaderSize is the minimum size of a log header payload
	LogHeaderSize = 16

	// FormatHeaderSize is the minimum size of a zphr payload
	FormatHeaderSize = 8

	// maxHeaderChunk bounds the payload read for header chunks
	maxHeaderChunk = BlockSize
)

// Chunk tags.
const (
	TagRIFF   = "RIFF"
	TagJunk   = "JUNK"
	TagFormat = "zphr"
	TagFMS    = "fms "
	TagLogH   = "logh"
	TagLog1   = "log1"
	TagLog2   = "log2"
	TagLogR   = "logr"
)

// Reader reads length bytes of device storage at offset.
type Reader interface {
	Read(ctx context.Context, offset, length int) ([]byte, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, offset, length int) ([]byte, error)

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, offset, length int) ([]byte, error) {
	return f(ctx, offset, length)
}

// Logger receives parser events. downloader.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
}

type parseConfig struct {
	logger   Logger
	location *time.Location
}

// Option configures Parse.
type Option func(*parseConfig)

// WithLogger sets a logger for parse events.
func WithLogger(l Logger) Option {
	return func(c *parseConfig) {
		c.logger = l
	}
}

// WithLocation sets the time zone of session timestamps. Default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *parseConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// validChunk marks the last chunk recognized, for resynchronization.
type validChunk struct {
	offset int
	tag    string
}

// Parse walks the container in device storage and returns its session
// directory.
//
// Unknown tags, a log data chunk without a log header, and malformed
// header chunks are skipped by jumping to the next storage block boundary
// past the last recognized chunk. Only read failures, a root tag other
// than RIFF, or a container with no recognizable chunk at all are errors.
//
// Example:
//
//	dir, err := riff.Parse(ctx, reader)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(dir.FormatVersion, len(dir.Sessions))
func Parse(ctx context.Context, r Reader, opts ...Option) (*Directory, error) {
	cfg := parseConfig{location: time.UTC}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &parser{r: r, cfg: cfg}
	return p.parse(ctx)
}

// ParseBytes parses a storage image held in memory, such as a dump file.
func ParseBytes(image []byte, opts ...Option) (*Directory, error) {
	r := ReaderFunc(func(ctx context.Context, offset, length int) ([]byte, error) {
		if offset < 0 || length < 0 || offset+length > len(image) {
			return nil, fmt.Errorf("range 0x%08X+%d outside image of %d bytes", offset, length, len(image))
		}
		return image[offset : offset+length], nil
	})
	return Parse(context.Background(), r, opts...)
}

type parser struct {
	r   Reader
	cfg parseConfig
}

func (p *parser) parse(ctx context.Context) (*Directory, error) {
	hdr, err := p.read(ctx, 0, ContainerHeaderSize)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(string(hdr[:4]), TagRIFF) {
		return nil, &FormatError{Offset: 0, Reason: fmt.Sprintf("root tag %q is not RIFF", hdr[:4])}
	}
	total := int(int32(binary.LittleEndian.Uint32(hdr[4:8])))

	dir := &Directory{}
	var (
		open        *Session
		lastValid   *validChunk
		reportError bool
		recognized  bool
	)

	offset := ContainerHeaderSize
	for offset < total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch, err := p.read(ctx, offset, ChunkHeaderSize)
		if err != nil {
			return nil, err
		}
		offset += ChunkHeaderSize
		tag := string(ch[:4])
		length := int(int32(binary.LittleEndian.Uint32(ch[4:8])))

		bad := false
		reason := ""
		switch {
		case length < 0:
			bad, reason = true, fmt.Sprintf("chunk %q has negative length %d", tag, length)
			open = nil

		case tag == TagJunk:
			lastValid = &validChunk{offset: offset, tag: tag}
			offset += length

		case tag == TagFormat:
			lastValid = &validChunk{offset: offset, tag: tag}
			if length < FormatHeaderSize || length > maxHeaderChunk {
				bad, reason = true, fmt.Sprintf("format header of %d bytes", length)
			} else {
				data, err := p.read(ctx, offset, length)
				if err != nil {
					return nil, err
				}
				dir.FormatVersion = string(data[4:8])
				offset += length
			}
			open = nil

		case tag == TagFMS:
			lastValid = &validChunk{offset: offset, tag: tag}
			offset += length
			open = nil

		case tag == TagLogH || tag == TagLog1 || tag == TagLog2:
			lastValid = &validChunk{offset: offset, tag: tag}
			open = nil
			if length < LogHeaderSize || length > maxHeaderChunk {
				bad, reason = true, fmt.Sprintf("log header of %d bytes", length)
				break
			}
			data, err := p.read(ctx, offset, length)
			if err != nil {
				return nil, err
			}
			s, err := decodeLogHeader(tag, data, p.cfg.location)
			if err != nil {
				bad, reason = true, err.Error()
				break
			}
			open = s
			offset += length

		case tag == TagLogR:
			lastValid = &validChunk{offset: offset, tag: tag}
			if open == nil {
				bad, reason = true, "log data without log header"
			} else if open.PadBytes > length {
				bad, reason = true, fmt.Sprintf("padding %d exceeds log data of %d bytes", open.PadBytes, length)
			} else {
				dir.Sessions = append(dir.Sessions, closeSession(*open, offset, length))
			}
			offset += length
			open = nil

		default:
			bad, reason = true, fmt.Sprintf("unknown chunk tag %q", tag)
			open = nil
		}

		if !bad {
			reportError = false
			recognized = true
			continue
		}

		// only the first error of a bad region is reported; the region is
		// then skipped block by block
		if !reportError {
			p.logInfo("bad chunk, resynchronizing",
				"offset", fmt.Sprintf("0x%08X", offset),
				"reason", reason,
			)
			reportError = true
			if lastValid != nil {
				offset = lastValid.offset
			}
		}
		offset -= ChunkHeaderSize
		offset += BlockSize - offset%BlockSize
	}

	if reportError && !recognized {
		return nil, &FormatError{Offset: offset, Reason: "no recognizable chunk in container"}
	}
	if open != nil {
		p.logDebug("log header without log data at end of container", "start", open.Timestamp)
	}

	p.logInfo("session directory read",
		"format", dir.FormatVersion,
		"sessions", len(dir.Sessions),
		"container_bytes", total,
	)
	return dir, nil
}

// closeSession completes s with the log data chunk whose payload starts at
// offset and spans length bytes.
func closeSession(s Session, offset, length int) Session {
	s.Offset = offset + s.PadBytes
	s.Length = length - s.PadBytes

	records := s.Length / s.Stride()
	switch {
	case records == 0:
		s.Duration = 0
	case records == 1:
		// a single record has nothing to measure against
		s.Duration = time.Second
	default:
		s.Duration = time.Duration(records-1) * time.Duration(s.Period) * time.Millisecond
	}
	return s
}

// decodeLogHeader decodes a log header payload.
//
//	[YEAR(2)][MONTH][DAY][MS_OF_DAY(4)][PERIOD(2)][RSVD(2)][CHANNELS(2)][PAD(2)]
func decodeLogHeader(tag string, b []byte, loc *time.Location) (*Session, error) {
	year := int(binary.LittleEndian.Uint16(b[0:2]))
	month := int(b[2])
	day := int(b[3])
	ms := int(int32(binary.LittleEndian.Uint32(b[4:8])))
	period := int(int16(binary.LittleEndian.Uint16(b[8:10])))
	channels := int(int16(binary.LittleEndian.Uint16(b[12:14])))
	pad := int(int16(binary.LittleEndian.Uint16(b[14:16])))

	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return nil, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	if ms < 0 || ms >= 24*60*60*1000 {
		return nil, fmt.Errorf("invalid time of day %dms", ms)
	}
	if period == 0 {
		period = DefaultPeriod
	}
	if period < 0 {
		return nil, fmt.Errorf("invalid period %d", period)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if pad < 0 {
		return nil, fmt.Errorf("invalid padding %d", pad)
	}

	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc).
		Add(time.Duration(ms) * time.Millisecond)

	return &Session{
		Tag:       tag,
		Timestamp: start,
		Period:    period,
		Channels:  channels,
		PadBytes:  pad,
	}, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// read reads exactly length bytes or fails with ErrDeviceRead.
func (p *parser) read(ctx context.Context, offset, length int) ([]byte, error) {
	data, err := p.r.Read(ctx, offset, length)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DeviceReadError{Offset: offset, Length: length, Err: err}
	}
	if len(data) != length {
		return nil, &DeviceReadError{Offset: offset, Length: length,
			Err: fmt.Errorf("short read: got %d bytes", len(data))}
	}
	return data, nil
}

func (p *parser) logDebug(msg string, keysAndValues ...interface{}) {
	if p.cfg.logger != nil {
		p.cfg.logger.Debug(msg, keysAndValues...)
	}
}

func (p *parser) logInfo(msg string, keysAndValues ...interface{}) {
	if p.cfg.logger != nil {
		p.cfg.logger.Info(msg, keysAndValues...)
	}
}
