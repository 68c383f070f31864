package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/moffa90/go-bioharness/protocol"
	"github.com/moffa90/go-bioharness/transport"
)

// FrameReader reads ranges of device storage over a transport, one
// protocol frame of at most 128 bytes at a time.
//
// A FrameReader is not safe for concurrent use; the device answers one
// request at a time.
type FrameReader struct {
	t      transport.Transport
	config Config
}

// NewFrameReader returns a FrameReader over t.
//
// Example:
//
//	t, _ := transport.Open(ctx, "COM3")
//	defer t.Close()
//	r := downloader.NewFrameReader(t)
//	var diag downloader.Diagnostics
//	data, err := r.Read(ctx, 0, 12, &diag)
func NewFrameReader(t transport.Transport, opts ...Option) *FrameReader {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newFrameReader(t, cfg)
}

func newFrameReader(t transport.Transport, cfg Config) *FrameReader {
	return &FrameReader{t: t, config: cfg}
}

// Read returns length bytes of storage starting at offset.
//
// The range is requested in frames of up to 128 bytes. A corrupt frame is
// re-requested up to BadDataRetries times in total; a transport failure or
// a device NAK aborts at once. Read either returns every byte validated or
// a *ReadError and no data.
func (r *FrameReader) Read(ctx context.Context, offset, length int, diag *Diagnostics) ([]byte, error) {
	if offset < 0 || length < 0 || int64(offset)+int64(length) > 1<<32 {
		return nil, &ReadError{Offset: offset, Length: length, FrameOffset: offset,
			Err: fmt.Errorf("range outside 32-bit storage")}
	}

	out := make([]byte, length)
	totalFrames := (length + protocol.MaxPayloadSize - 1) / protocol.MaxPayloadSize
	start := time.Now()

	for frame, pos := 0, 0; pos < length; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, &ReadError{Offset: offset, Length: length, FrameOffset: offset + pos, Err: err}
		}

		count := length - pos
		if count > protocol.MaxPayloadSize {
			count = protocol.MaxPayloadSize
		}

		payload, err := r.readFrame(ctx, offset+pos, count, diag)
		if err != nil {
			return nil, &ReadError{Offset: offset, Length: length, FrameOffset: offset + pos, Err: err}
		}

		copy(out[pos:], payload)
		pos += count
		diag.recordBytes(count)

		r.reportProgress(Progress{
			Phase:       PhaseDownloading,
			Frame:       frame + 1,
			TotalFrames: totalFrames,
			BytesRead:   pos,
			TotalBytes:  length,
			Percentage:  float64(pos) / float64(length) * 100,
			ElapsedTime: time.Since(start),
		})
	}

	return out, nil
}

// ReadRetry is Read repeated as a whole up to ReadRetries more times after
// a failure. Input is drained before each repeat. Cancellation and a closed
// transport are not retried.
func (r *FrameReader) ReadRetry(ctx context.Context, offset, length int, diag *Diagnostics) ([]byte, error) {
	var data []byte
	attempt := 0
	op := func() error {
		if attempt > 0 {
			diag.recordReadRetry()
			r.drain(offset, diag)
			r.logDebug("retrying read", "offset", fmt.Sprintf("0x%08X", offset), "length", length)
		}
		attempt++

		var err error
		data, err = r.Read(ctx, offset, length, diag)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(r.config.ReadRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, transport.ErrClosed)
}

// readFrame performs one request/response exchange, re-requesting the
// frame while the response is corrupt.
func (r *FrameReader) readFrame(ctx context.Context, offset, count int, diag *Diagnostics) ([]byte, error) {
	req, err := protocol.BuildGetLogCmd(uint32(offset), count)
	if err != nil {
		return nil, err
	}
	resp := make([]byte, protocol.ResponseSize(count))

	for attempt := 1; ; attempt++ {
		diag.recordRequest()
		if _, err := r.t.Write(req); err != nil {
			return nil, fmt.Errorf("write request: %w", err)
		}

		if err := r.readFull(ctx, resp); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		payload, err := protocol.ValidateResponse(resp, count)
		if err == nil {
			return payload, nil
		}
		if isRefused(err) {
			diag.recordNAK()
			r.logDebug("device refused frame", "offset", fmt.Sprintf("0x%08X", offset), "count", count)
			return nil, err
		}

		diag.recordValidation(err)
		r.logDebug("bad frame",
			"offset", fmt.Sprintf("0x%08X", offset),
			"attempt", attempt,
			"reason", err.Error(),
		)
		r.drain(offset, diag)

		if attempt >= r.config.BadDataRetries {
			return nil, &FrameError{Offset: offset, Count: count, Attempts: attempt, Err: err}
		}
		diag.recordFrameRetry()
	}
}

// readFull fills buf, looping over short reads until the frame timeout.
func (r *FrameReader) readFull(ctx context.Context, buf []byte) error {
	deadline := time.Now().Add(r.config.FrameTimeout)
	for n := 0; n < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d of %d bytes after %s", transport.ErrTimeout, n, len(buf), r.config.FrameTimeout)
		}
		m, err := r.t.Read(buf[n:])
		n += m
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *FrameReader) drain(offset int, diag *Diagnostics) {
	diag.recordDrain()
	if err := r.t.DiscardInput(); err != nil {
		r.logDebug("discard input failed", "offset", fmt.Sprintf("0x%08X", offset), "error", err.Error())
	}
}

// reportProgress calls the progress callback if configured.
func (r *FrameReader) reportProgress(progress Progress) {
	if r.config.ProgressCallback != nil {
		r.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (r *FrameReader) logDebug(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, keysAndValues...)
	}
}
