package transport

import (
	"context"
	"io"
	"strings"
	"time"
)

// Transport is a byte stream to one BioHarness device.
//
// Read blocks until at least one byte is available or the transport's read
// timeout expires, in which case it returns ErrTimeout. Short reads are
// normal; callers loop until they have the bytes they need.
type Transport interface {
	io.ReadWriteCloser

	// DiscardInput drops any bytes already received but not yet read.
	DiscardInput() error
}

// Kind is the transport variant selected for a device identifier.
type Kind int

const (
	// KindSerial is a UART or virtual COM port
	KindSerial Kind = iota

	// KindUSB is a native USB device with bulk pipes, addressed by serial number
	KindUSB
)

func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindUSB:
		return "usb"
	default:
		return "unknown"
	}
}

// serialPrefixes are identifier prefixes that name a serial port.
var serialPrefixes = []string{"COM", "CNC", "/dev/"}

// KindOf returns the transport variant an identifier selects. Identifiers
// starting with a serial port prefix (COM, CNC or /dev/) are serial ports;
// anything else is a USB serial number.
func KindOf(id string) Kind {
	upper := strings.ToUpper(id)
	for _, prefix := range serialPrefixes {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			return KindSerial
		}
	}
	return KindUSB
}

// Opener opens a transport for a device identifier. Open is the default;
// tests substitute simulators.
type Opener func(ctx context.Context, id string) (Transport, error)

// Open selects the transport variant for id and opens it. Failures are
// reported as *ConnectionError.
func Open(ctx context.Context, id string, opts ...Option) (Transport, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	kind := KindOf(id)
	var (
		t   Transport
		err error
	)
	switch kind {
	case KindSerial:
		t, err = OpenSerial(id, cfg)
	default:
		t, err = OpenUSB(ctx, id, cfg)
	}
	if err != nil {
		return nil, &ConnectionError{ID: id, Kind: kind, Err: err}
	}
	return t, nil
}

// NewOpener returns an Opener that calls Open with the given options.
func NewOpener(opts ...Option) Opener {
	return func(ctx context.Context, id string) (Transport, error) {
		return Open(ctx, id, opts...)
	}
}

// Config holds transport parameters.
type Config struct {
	// BaudRate of serial ports (default: 115200)
	BaudRate int

	// ReadTimeout bounds one serial Read (default: 2s)
	ReadTimeout time.Duration

	// USBTimeout is the wall-clock bound on one USB Read or Write (default: 2s)
	USBTimeout time.Duration

	// VendorID filters native USB devices (default: 0x22F3)
	VendorID uint16

	// OpenRetryDelay is the wait before the single USB open retry (default: 1.5s)
	OpenRetryDelay time.Duration

	// BannerWait is the pause after a USB open before discarding the startup banner (default: 400ms)
	BannerWait time.Duration

	// BannerMax is the most banner bytes discarded after a USB open (default: 128)
	BannerMax int
}

// DefaultConfig returns the transport defaults.
func DefaultConfig() Config {
	return Config{
		BaudRate:       115200,
		ReadTimeout:    2 * time.Second,
		USBTimeout:     2 * time.Second,
		VendorID:       ZephyrVendorID,
		OpenRetryDelay: 1500 * time.Millisecond,
		BannerWait:     400 * time.Millisecond,
		BannerMax:      128,
	}
}

// Option configures a transport.
type Option func(*Config)

// WithBaudRate sets the serial baud rate.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		c.BaudRate = baud
	}
}

// WithReadTimeout sets the serial read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// WithUSBTimeout sets the USB read and write timeout.
func WithUSBTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.USBTimeout = d
	}
}

// WithVendorID sets the USB vendor ID used to find devices.
func WithVendorID(vid uint16) Option {
	return func(c *Config) {
		c.VendorID = vid
	}
}

// WithOpenRetryDelay sets the delay before the USB open retry.
func WithOpenRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.OpenRetryDelay = d
	}
}

// WithBanner sets the startup banner wait and the maximum number of bytes discarded.
func WithBanner(wait time.Duration, max int) Option {
	return func(c *Config) {
		c.BannerWait = wait
		c.BannerMax = max
	}
}
