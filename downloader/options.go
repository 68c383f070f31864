package downloader

import (
	"time"

	"github.com/moffa90/go-bioharness/transport"
)

// Config holds the downloader configuration.
type Config struct {
	// ProgressCallback is called during downloads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// FrameTimeout is the wall-clock bound on receiving one response frame
	FrameTimeout time.Duration

	// BadDataRetries is the number of attempts per frame before a corrupt
	// frame fails the read
	BadDataRetries int

	// ReadRetries is the number of times a failed logical read is repeated
	ReadRetries int

	// Opener opens transports; nil uses transport.Open with TransportOptions
	Opener transport.Opener

	// TransportOptions are passed to transport.Open by the default opener
	TransportOptions []transport.Option

	// Location is the time zone of session timestamps
	Location *time.Location
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		FrameTimeout:   2 * time.Second,
		BadDataRetries: 10,
		ReadRetries:    1,
		Location:       time.UTC,
	}
}

// Option is a functional option for configuring the Downloader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
//
// Example:
//
//	d := downloader.New(
//	    downloader.WithProgressCallback(func(p downloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the downloader operations.
//
// Example:
//
//	d := downloader.New(downloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithFrameTimeout sets the wall-clock limit for receiving one response frame.
//
// Example:
//
//	d := downloader.New(downloader.WithFrameTimeout(3*time.Second))
func WithFrameTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.FrameTimeout = timeout
		}
	}
}

// WithBadDataRetries sets the number of attempts made for a corrupt frame.
// Default is 10.
func WithBadDataRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.BadDataRetries = retries
		}
	}
}

// WithReadRetries sets how many times a failed read is repeated as a whole.
// Default is 1.
func WithReadRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.ReadRetries = retries
		}
	}
}

// WithOpener sets the function used to open device transports.
//
// Example:
//
//	d := downloader.New(downloader.WithOpener(simulator.Opener(dev)))
func WithOpener(opener transport.Opener) Option {
	return func(c *Config) {
		c.Opener = opener
	}
}

// WithTransportOptions sets options passed to transport.Open by the default opener.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(c *Config) {
		c.TransportOptions = append(c.TransportOptions, opts...)
	}
}

// WithLocation sets the time zone in which session timestamps are interpreted.
// Default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		if loc != nil {
			c.Location = loc
		}
	}
}
