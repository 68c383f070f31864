package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-bioharness/riff"
	"github.com/moffa90/go-bioharness/transport"
)

// Downloader retrieves session directories and session data from devices.
// Each operation opens the device, works, and closes it again.
//
// Downloader is safe for concurrent use with distinct devices. Operations on
// the same device must be serialized by the caller.
type Downloader struct {
	config Config
}

// Result is the outcome of an asynchronous download.
type Result struct {
	Data        []byte
	Diagnostics Diagnostics
	Err         error
}

// New creates a new Downloader with the given options.
//
// Example:
//
//	d := downloader.New(
//	    downloader.WithLogger(log),
//	    downloader.WithProgressCallback(progressFunc),
//	)
//	dir, diag, err := d.SessionDirectory(ctx, "COM3")
func New(opts ...Option) *Downloader {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Downloader{config: cfg}
}

// SessionDirectory scans the device's log storage and returns its session
// directory. Each storage read is retried once as a whole before the scan fails.
func (d *Downloader) SessionDirectory(ctx context.Context, id string) (*riff.Directory, Diagnostics, error) {
	var diag Diagnostics
	start := time.Now()

	t, err := d.open(ctx, id)
	if err != nil {
		d.logError("open failed", "device", id, "error", err.Error())
		return nil, diag, err
	}
	defer t.Close()
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	cfg := d.config
	cfg.ProgressCallback = nil
	fr := newFrameReader(t, cfg)

	d.reportProgress(Progress{Phase: PhaseScanning})

	reader := riff.ReaderFunc(func(ctx context.Context, offset, length int) ([]byte, error) {
		return fr.ReadRetry(ctx, offset, length, &diag)
	})
	opts := []riff.Option{riff.WithLocation(d.config.Location)}
	if d.config.Logger != nil {
		opts = append(opts, riff.WithLogger(d.config.Logger))
	}

	dir, err := riff.Parse(ctx, reader, opts...)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("session directory of %s: %w", id, ctx.Err())
		} else {
			err = fmt.Errorf("session directory of %s: %w", id, err)
		}
		d.logError("scan failed", append([]interface{}{"device", id, "error", err.Error()}, diag.KeysAndValues()...)...)
		return nil, diag, err
	}

	d.reportProgress(Progress{
		Phase:       PhaseComplete,
		Percentage:  100,
		BytesRead:   diag.BytesRead,
		ElapsedTime: time.Since(start),
	})
	d.logInfo("scan complete", append([]interface{}{
		"device", id,
		"format", dir.FormatVersion,
		"sessions", len(dir.Sessions),
		"elapsed", time.Since(start).String(),
	}, diag.KeysAndValues()...)...)

	return dir, diag, nil
}

// LoadSessionData downloads the raw sample bytes of one session.
func (d *Downloader) LoadSessionData(ctx context.Context, id string, s riff.Session) ([]byte, Diagnostics, error) {
	var diag Diagnostics
	if s.Offset < 0 || s.Length < 0 {
		return nil, diag, fmt.Errorf("%w: offset %d length %d", ErrInvalidSession, s.Offset, s.Length)
	}
	start := time.Now()

	t, err := d.open(ctx, id)
	if err != nil {
		d.logError("open failed", "device", id, "error", err.Error())
		return nil, diag, err
	}
	defer t.Close()
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	fr := newFrameReader(t, d.config)
	data, err := fr.ReadRetry(ctx, s.Offset, s.Length, &diag)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("session data of %s: %w", id, ctx.Err())
		} else {
			err = fmt.Errorf("session data of %s: %w", id, err)
		}
		d.logError("download failed", append([]interface{}{"device", id, "error", err.Error()}, diag.KeysAndValues()...)...)
		return nil, diag, err
	}

	d.reportProgress(Progress{
		Phase:       PhaseComplete,
		BytesRead:   len(data),
		TotalBytes:  s.Length,
		Percentage:  100,
		ElapsedTime: time.Since(start),
	})
	d.logInfo("download complete", append([]interface{}{
		"device", id,
		"session", s.Timestamp,
		"bytes", len(data),
		"elapsed", time.Since(start).String(),
	}, diag.KeysAndValues()...)...)

	return data, diag, nil
}

// LoadSessionDataAsync runs LoadSessionData in a goroutine and delivers
// the result on the returned channel, which is then closed. Cancelling ctx
// closes the transport, failing the read in progress.
//
// Example:
//
//	select {
//	case res := <-d.LoadSessionDataAsync(ctx, id, s):
//	    if res.Err != nil { ... }
//	case <-ui.cancelled:
//	    cancel()
//	}
func (d *Downloader) LoadSessionDataAsync(ctx context.Context, id string, s riff.Session) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		data, diag, err := d.LoadSessionData(ctx, id, s)
		out <- Result{Data: data, Diagnostics: diag, Err: err}
	}()
	return out
}

func (d *Downloader) open(ctx context.Context, id string) (transport.Transport, error) {
	if d.config.Opener != nil {
		return d.config.Opener(ctx, id)
	}
	return transport.Open(ctx, id, d.config.TransportOptions...)
}

// reportProgress calls the progress callback if configured.
func (d *Downloader) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Downloader) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Downloader) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
